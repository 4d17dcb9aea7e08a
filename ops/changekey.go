// Package ops composes the CMAC, APDU, secure-messaging, and SDM codec
// packages into the privileged operations this tool performs end to end:
// ChangeKey, ChangeFileSettings, GetFileSettings, and GetSDMReadCounter
// (spec component H).
package ops

import (
	"fmt"

	"ntag424ctl/card"
	"ntag424ctl/ev2session"
	"ntag424ctl/internal/crc32ietf"
)

// ChangeKey replaces key targetKeyNo with newKey over an authenticated
// Session (spec §4.H). The payload binds the new key to oldKey via XOR and
// self-checks with this card's non-standard CRC32 variant. A payload the
// card rejects comes back as a status other than 0x9100, which ChangeKey
// returns as an error.
func ChangeKey(r card.Transceiver, sess *ev2session.Session, targetKeyNo byte, oldKey, newKey [16]byte, keyVersion byte) error {
	payload := make([]byte, 0, 21)
	for i := 0; i < 16; i++ {
		payload = append(payload, newKey[i]^oldKey[i])
	}
	payload = append(payload, keyVersion)

	crc := crc32ietf.Checksum(newKey[:])
	payload = append(payload, byte(crc), byte(crc>>8), byte(crc>>16), byte(crc>>24))

	_, sw, err := sess.Exchange(r, 0xC4, []byte{targetKeyNo}, payload)
	if err != nil {
		return fmt.Errorf("ops: ChangeKey: %w", err)
	}
	if sw != card.SWSecureOK {
		return fmt.Errorf("ops: ChangeKey: card returned SW=%04X", sw)
	}
	return nil
}
