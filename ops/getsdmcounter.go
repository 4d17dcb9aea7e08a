package ops

import (
	"fmt"

	"ntag424ctl/card"
	"ntag424ctl/ev2session"
)

// NoCounterOffset is the sentinel SDMReadCtrOffset value (spec §4.F
// PICCDataOffset table, original_source's SDM_READ_CTR_OFFSET_NONE)
// meaning the card does not mirror a read counter for this file.
const NoCounterOffset = 0xFFFFFF

func parseCounterBody(body []byte) (uint32, error) {
	if len(body) < 3 {
		return 0, fmt.Errorf("ops: GetSDMReadCounter: response too short: %d bytes", len(body))
	}
	return uint32(body[0]) | uint32(body[1])<<8 | uint32(body[2])<<16, nil
}

// GetSDMReadCounterPlain issues the unauthenticated GetFileCounters
// variant (spec §4.H). The returned counter is NoCounterOffset if the file
// has no SDM read counter configured.
func GetSDMReadCounterPlain(r card.Transceiver, fileNo byte) (uint32, error) {
	le := byte(0x00)
	resp, err := card.Transmit(r, card.APDU{CLA: 0x90, INS: 0xF6, Data: []byte{fileNo}, Le: &le})
	if err != nil {
		return 0, fmt.Errorf("ops: GetSDMReadCounterPlain: %w", err)
	}
	if resp.SW != card.SWOK {
		return 0, fmt.Errorf("ops: GetSDMReadCounterPlain: card returned SW=%04X", resp.SW)
	}
	return parseCounterBody(resp.Body)
}

// GetSDMReadCounterSecure is the same command under secure messaging.
func GetSDMReadCounterSecure(r card.Transceiver, sess *ev2session.Session, fileNo byte) (uint32, error) {
	body, sw, err := sess.Exchange(r, 0xF6, []byte{fileNo}, nil)
	if err != nil {
		return 0, fmt.Errorf("ops: GetSDMReadCounterSecure: %w", err)
	}
	if sw != card.SWSecureOK {
		return 0, fmt.Errorf("ops: GetSDMReadCounterSecure: card returned SW=%04X", sw)
	}
	return parseCounterBody(body)
}

// GetSDMReadCounter tries the plain variant first and falls back to secure
// messaging, mirroring GetFileSettings's policy (spec §4.H).
func GetSDMReadCounter(r card.Transceiver, sess *ev2session.Session, fileNo byte) (uint32, error) {
	counter, err := GetSDMReadCounterPlain(r, fileNo)
	if err == nil {
		return counter, nil
	}
	if sess == nil {
		return 0, err
	}
	return GetSDMReadCounterSecure(r, sess, fileNo)
}
