package ops

import (
	"fmt"

	"ntag424ctl/card"
	"ntag424ctl/ev2session"
)

// ReadDataPlain issues the unauthenticated ReadData command (CLA 0x90, INS
// 0xAD): fileNo, a 3-byte little-endian offset, and a 3-byte little-endian
// length (0 meaning "to the end of the file"), mirroring GetFileSettings's
// command-header shape.
func ReadDataPlain(r card.Transceiver, fileNo byte, offset, length uint32) ([]byte, error) {
	data := append([]byte{fileNo}, encodeU24LE(offset)...)
	data = append(data, encodeU24LE(length)...)
	le := byte(0x00)
	resp, err := card.Transmit(r, card.APDU{CLA: 0x90, INS: 0xAD, Data: data, Le: &le})
	if err != nil {
		return nil, fmt.Errorf("ops: ReadDataPlain: %w", err)
	}
	if resp.SW != card.SWOK {
		return nil, fmt.Errorf("ops: ReadDataPlain: card returned SW=%04X", resp.SW)
	}
	return resp.Body, nil
}

// ReadDataSecure issues ReadData wrapped in the established secure-messaging
// session, for files whose access rights require authentication to read.
func ReadDataSecure(r card.Transceiver, sess *ev2session.Session, fileNo byte, offset, length uint32) ([]byte, error) {
	data := append(encodeU24LE(offset), encodeU24LE(length)...)
	body, sw, err := sess.Exchange(r, 0xAD, []byte{fileNo}, data)
	if err != nil {
		return nil, fmt.Errorf("ops: ReadDataSecure: %w", err)
	}
	if sw != card.SWSecureOK {
		return nil, fmt.Errorf("ops: ReadDataSecure: card returned SW=%04X", sw)
	}
	return body, nil
}

// ReadData tries the plain variant first and falls back to secure messaging,
// mirroring GetFileSettings's and GetSDMReadCounter's fallback policy. It
// lets a caller confirm an SDM-templated NDEF record was written correctly
// by reading it back, without implementing general-purpose NDEF parsing.
func ReadData(r card.Transceiver, sess *ev2session.Session, fileNo byte, offset, length uint32) ([]byte, error) {
	body, err := ReadDataPlain(r, fileNo, offset, length)
	if err == nil {
		return body, nil
	}
	if sess == nil {
		return nil, err
	}
	return ReadDataSecure(r, sess, fileNo, offset, length)
}

func encodeU24LE(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16)}
}
