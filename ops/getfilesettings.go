package ops

import (
	"fmt"

	"ntag424ctl/card"
	"ntag424ctl/ev2session"
	"ntag424ctl/sdm"
)

// GetFileSettingsPlain issues the unauthenticated GetFileSettings command
// (spec §4.H) and parses the response.
func GetFileSettingsPlain(r card.Transceiver, fileNo byte) (*sdm.FileSettings, error) {
	le := byte(0x00)
	resp, err := card.Transmit(r, card.APDU{CLA: 0x90, INS: 0xF5, Data: []byte{fileNo}, Le: &le})
	if err != nil {
		return nil, fmt.Errorf("ops: GetFileSettingsPlain: %w", err)
	}
	if resp.SW != card.SWOK {
		return nil, fmt.Errorf("ops: GetFileSettingsPlain: card returned SW=%04X", resp.SW)
	}
	return sdm.ParseFileSettings(resp.Body)
}

// GetFileSettingsSecure issues GetFileSettings wrapped in the established
// secure-messaging session, for files whose access rights require
// authentication to read their settings.
func GetFileSettingsSecure(r card.Transceiver, sess *ev2session.Session, fileNo byte) (*sdm.FileSettings, error) {
	body, sw, err := sess.Exchange(r, 0xF5, []byte{fileNo}, nil)
	if err != nil {
		return nil, fmt.Errorf("ops: GetFileSettingsSecure: %w", err)
	}
	if sw != card.SWSecureOK {
		return nil, fmt.Errorf("ops: GetFileSettingsSecure: card returned SW=%04X", sw)
	}
	return sdm.ParseFileSettings(body)
}

// GetFileSettings tries the plain variant first and falls back to secure
// messaging whenever the plain attempt fails and sess is non-nil (for
// instance because the card demands authentication for this file). With a
// nil sess the plain error is returned.
func GetFileSettings(r card.Transceiver, sess *ev2session.Session, fileNo byte) (*sdm.FileSettings, error) {
	fs, err := GetFileSettingsPlain(r, fileNo)
	if err == nil {
		return fs, nil
	}
	if sess == nil {
		return nil, err
	}
	return GetFileSettingsSecure(r, sess, fileNo)
}
