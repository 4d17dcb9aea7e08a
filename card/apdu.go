package card

import "fmt"

// Status words the core cares about directly (spec §6). Everything else is
// passed through uninterpreted.
const (
	SWOK              = 0x9000
	SWEV2MoreData     = 0x91AF // EV2-First step 1: "more data, continuation"
	SWSecureOK        = 0x9100 // EV2-First step 2 success, and secure-messaging success
	SWWrongP1P2       = 0x6A86
	SWClaNotSupported = 0x6E00
	SWInsNotSupported = 0x6D00
)

// insGetResponse is the ISO 7816-4 GET RESPONSE instruction used to follow
// up on a 0x61XX "more data available" status. The NTAG 424 DNA commands in
// this tool never produce that status, but SELECT can.
const insGetResponse = 0xC0

const insSelect = 0xA4

// Transceiver is the abstract transport collaborator from spec §1/§6: given
// a raw APDU byte string, return the raw response bytes (body plus trailing
// SW). Reader enumeration, connection lifetime, and the raw PC/SC call are
// the transport's concern, not the protocol core's. *Reader implements this
// against a real PC/SC card; tests implement it against a scripted fixture.
type Transceiver interface {
	Transmit(apdu []byte) ([]byte, error)
}

// APDU is the abstract short-form command record from spec §3: CLA, INS,
// P1, P2, an optional data field (<=255 bytes), and an optional Le.
type APDU struct {
	CLA  byte
	INS  byte
	P1   byte
	P2   byte
	Data []byte
	Le   *byte // nil means "no Le byte"
}

// Bytes serializes the APDU in short form.
func (a APDU) Bytes() ([]byte, error) {
	if len(a.Data) > 255 {
		return nil, fmt.Errorf("apdu: command data too large for short form: %d bytes", len(a.Data))
	}
	out := make([]byte, 0, 5+len(a.Data)+1)
	out = append(out, a.CLA, a.INS, a.P1, a.P2)
	if len(a.Data) > 0 {
		out = append(out, byte(len(a.Data)))
		out = append(out, a.Data...)
	}
	if a.Le != nil {
		out = append(out, *a.Le)
	}
	return out, nil
}

// Response is the card's reply: a body and the 16-bit status word, split
// per spec §3.
type Response struct {
	Body []byte
	SW   uint16
}

// SW1 returns the high byte of the status word.
func (r Response) SW1() byte { return byte(r.SW >> 8) }

// SW2 returns the low byte of the status word.
func (r Response) SW2() byte { return byte(r.SW) }

// Transmit sends one APDU and returns (body, SW), re-issuing the same
// command with Le=XX on a 0x6CXX "wrong Le" status (spec §4.B). It does not
// interpret SW otherwise; a non-success SW is not an error here.
func Transmit(r Transceiver, apdu APDU) (Response, error) {
	raw, err := apdu.Bytes()
	if err != nil {
		return Response{}, err
	}

	resp, err := transmitRaw(r, raw)
	if err != nil {
		return Response{}, err
	}

	if resp.SW1() == 0x6C {
		retryLe := resp.SW2()
		apdu.Le = &retryLe
		raw, err = apdu.Bytes()
		if err != nil {
			return Response{}, err
		}
		resp, err = transmitRaw(r, raw)
		if err != nil {
			return Response{}, err
		}
	}

	return resp, nil
}

func transmitRaw(r Transceiver, raw []byte) (Response, error) {
	out, err := r.Transmit(raw)
	if err != nil {
		return Response{}, fmt.Errorf("apdu transmit: %w", err)
	}
	if len(out) < 2 {
		return Response{}, fmt.Errorf("apdu transmit: response too short: %d bytes", len(out))
	}
	sw := uint16(out[len(out)-2])<<8 | uint16(out[len(out)-1])
	return Response{Body: out[:len(out)-2], SW: sw}, nil
}

// SelectNDEFApp selects the NDEF application by AID (D2 76 00 00 85 01 01),
// the application that owns the CC file, the NDEF file, and the proprietary
// files this tool talks EV2 secure messaging to.
func SelectNDEFApp(r Transceiver) (Response, error) {
	aid := []byte{0xD2, 0x76, 0x00, 0x00, 0x85, 0x01, 0x01}
	le := byte(0x00)
	return Transmit(r, APDU{CLA: 0x00, INS: insSelect, P1: 0x04, P2: 0x00, Data: aid, Le: &le})
}

// SelectFile selects a 2-byte ISO file id (e.g. 0xE103 for the CC file,
// 0xE104 for the NDEF file) within the currently selected application.
func SelectFile(r Transceiver, fileID uint16) (Response, error) {
	data := []byte{byte(fileID >> 8), byte(fileID)}
	return Transmit(r, APDU{CLA: 0x00, INS: insSelect, P1: 0x00, P2: 0x0C, Data: data})
}

// GetResponse retrieves pending data with ISO 7816-4 GET RESPONSE, for the
// rare case a SELECT returns 0x61XX "more data available" instead of the FCI
// inline.
func GetResponse(r Transceiver, length byte) (Response, error) {
	return Transmit(r, APDU{CLA: 0x00, INS: insGetResponse, P1: 0x00, P2: 0x00, Le: &length})
}
