package ev2session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/google/uuid"

	"ntag424ctl/cmac"
	"ntag424ctl/card"
)

// RandomSource draws the host's random challenge. The default is
// crypto/rand; tests inject a fixed value (spec §9 "Global RNG override for
// tests" redesign: a capability passed in, not a package-global).
type RandomSource interface {
	RndA() ([16]byte, error)
}

// cryptoRandSource is the production RandomSource, backed by crypto/rand.
type cryptoRandSource struct{}

func (cryptoRandSource) RndA() ([16]byte, error) {
	var out [16]byte
	if _, err := io.ReadFull(rand.Reader, out[:]); err != nil {
		return out, fmt.Errorf("ev2session: reading RndA: %w", err)
	}
	return out, nil
}

// DefaultRandomSource is the crypto/rand-backed RandomSource used when the
// caller does not need to inject a fixed value.
var DefaultRandomSource RandomSource = cryptoRandSource{}

// fixedRandomSource is a test/debug helper, exposed through the exported
// NewFixedRandomSource so a harness can reproduce a captured handshake.
type fixedRandomSource struct{ v [16]byte }

// NewFixedRandomSource returns a RandomSource that always yields v. Intended
// for reproducing a captured handshake in tests.
func NewFixedRandomSource(v [16]byte) RandomSource { return fixedRandomSource{v} }

func (f fixedRandomSource) RndA() ([16]byte, error) { return f.v, nil }

// AuthenticateEV2First runs the two-pass EV2-First mutual authentication
// handshake (spec §4.D) against key K / key number keyNo over reader r, and
// returns a fresh authenticated Session.
func AuthenticateEV2First(r card.Transceiver, key [16]byte, keyNo byte, rng RandomSource) (*Session, error) {
	if keyNo > 0x0F {
		return nil, &ProtocolParameterError{Msg: fmt.Sprintf("key number %d out of range (0x00-0x0F)", keyNo)}
	}
	if rng == nil {
		rng = DefaultRandomSource
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("ev2session: %w", err)
	}

	// Step 1: 90 71 00 00 02 n 00 00
	resp, err := card.Transmit(r, card.APDU{
		CLA: 0x90, INS: 0x71, P1: 0x00, P2: 0x00,
		Data: []byte{keyNo, 0x00},
		Le:   le(0x00),
	})
	if err != nil {
		return nil, &TransportError{Op: "EV2-First step 1", Err: err}
	}
	if resp.SW != card.SWEV2MoreData {
		return nil, &UnexpectedStatusError{Step: "EV2-First step 1", Want: []uint16{card.SWEV2MoreData}, Got: resp.SW}
	}
	if len(resp.Body) != 16 {
		return nil, &ShortResponseError{Step: "EV2-First step 1", Want: 16, Got: len(resp.Body)}
	}

	var rndB [16]byte
	cbcDecrypt(block, zeroIV(), resp.Body, rndB[:])

	rndA, err := rng.RndA()
	if err != nil {
		return nil, err
	}

	rndBRot := rotateLeft1(rndB)
	m := make([]byte, 32)
	copy(m[:16], rndA[:])
	copy(m[16:], rndBRot[:])
	e := make([]byte, 32)
	cbcEncrypt(block, zeroIV(), m, e)

	// Step 2: 90 AF 00 00 20 E 00
	resp, err = card.Transmit(r, card.APDU{
		CLA: 0x90, INS: 0xAF, P1: 0x00, P2: 0x00,
		Data: e,
		Le:   le(0x00),
	})
	if err != nil {
		return nil, &TransportError{Op: "EV2-First step 2", Err: err}
	}
	if resp.SW != card.SWSecureOK {
		return nil, &UnexpectedStatusError{Step: "EV2-First step 2", Want: []uint16{card.SWSecureOK}, Got: resp.SW}
	}
	if len(resp.Body) != 32 {
		return nil, &ShortResponseError{Step: "EV2-First step 2", Want: 32, Got: len(resp.Body)}
	}

	dec := make([]byte, 32)
	cbcDecrypt(block, zeroIV(), resp.Body, dec)

	var ti [4]byte
	copy(ti[:], dec[0:4])
	var rndARotGot [16]byte
	copy(rndARotGot[:], dec[4:20])

	if rotateRight1(rndARotGot) != rndA {
		return nil, &AuthFailureError{}
	}

	kenc, kmac, err := deriveSessionKeys(key, rndA, rndB)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:            uuid.New(),
		KENC:          kenc,
		KMAC:          kmac,
		TI:            ti,
		CmdCtr:        0,
		KeyNo:         keyNo,
		Authenticated: true,
	}, nil
}

// deriveSessionKeys computes KENC and KMAC per spec §4.D step 7.
func deriveSessionKeys(key, rndA, rndB [16]byte) (kenc, kmac [16]byte, err error) {
	sv1 := buildSV([]byte{0xA5, 0x5A, 0x00, 0x01, 0x00, 0x80}, rndA, rndB)
	sv2 := buildSV([]byte{0x5A, 0xA5, 0x00, 0x01, 0x00, 0x80}, rndA, rndB)

	encFull, err := cmac.CMAC(key[:], sv1)
	if err != nil {
		return kenc, kmac, fmt.Errorf("ev2session: deriving KENC: %w", err)
	}
	macFull, err := cmac.CMAC(key[:], sv2)
	if err != nil {
		return kenc, kmac, fmt.Errorf("ev2session: deriving KMAC: %w", err)
	}
	copy(kenc[:], encFull)
	copy(kmac[:], macFull)
	return kenc, kmac, nil
}

// buildSV assembles SV1/SV2 = prefix(6) || MIX(26), where
// MIX = RndA[0:2] || (RndA[2:8] XOR RndB[0:6]) || RndB[6:16] || RndA[8:16].
func buildSV(prefix []byte, rndA, rndB [16]byte) []byte {
	mix := make([]byte, 26)
	copy(mix[0:2], rndA[0:2])
	for i := 0; i < 6; i++ {
		mix[2+i] = rndA[2+i] ^ rndB[i]
	}
	copy(mix[8:18], rndB[6:16])
	copy(mix[18:26], rndA[8:16])

	sv := make([]byte, 0, 32)
	sv = append(sv, prefix...)
	sv = append(sv, mix...)
	return sv
}

func rotateLeft1(b [16]byte) [16]byte {
	var out [16]byte
	copy(out[:15], b[1:])
	out[15] = b[0]
	return out
}

func rotateRight1(b [16]byte) [16]byte {
	var out [16]byte
	out[0] = b[15]
	copy(out[1:], b[:15])
	return out
}

func zeroIV() []byte { return make([]byte, 16) }

func cbcEncrypt(block cipher.Block, iv, plain, out []byte) {
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
}

func cbcDecrypt(block cipher.Block, iv, ct, out []byte) {
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)
}

func le(v byte) *byte { return &v }
