package ops

import (
	"fmt"

	"ntag424ctl/card"
	"ntag424ctl/ev2session"
	"ntag424ctl/sdm"
)

// SDMConfig is the subset of FileSettings fields ChangeFileSettingsSDM
// programs: UID+counter mirroring into an NDEF template built by
// sdm.BuildSDMTemplate.
type SDMConfig struct {
	CommMode byte // 0..3
	AR1      byte
	AR2      byte

	// SDMOptions bit 0x80 = mirror UID, 0x40 = mirror read counter, 0x01 =
	// ASCII encoding. The orchestrator passes this byte through unchanged;
	// the tool's default is UID+counter+ASCII (0xC1). The encrypted-file
	// mirroring fields and a counter limit are never emitted.
	SDMOptions byte

	Template *sdm.Template
}

// DefaultSDMOptions is UID mirroring + read-counter mirroring + ASCII
// encoding, the one SDM configuration this tool programs.
const DefaultSDMOptions = 0xC1

// ChangeFileSettingsSDM enables SDM mirroring on fileNo using the offsets
// from an SDM NDEF template (spec §4.F Build / §4.H). SDMMetaRead is fixed
// at 0x0E (offsets carried explicitly rather than derived from a PICC data
// tag) and SDMFileRead/SDMCtrRet are fixed at 0x02/0x00, matching the
// template's single mirrored NDEF file.
func ChangeFileSettingsSDM(r card.Transceiver, sess *ev2session.Session, fileNo byte, cfg SDMConfig) error {
	const (
		sdmMetaRead = 0x0E
		sdmFileRead = 0x02
		sdmCtrRet   = 0x00
	)

	payload := sdm.BuildFileSettings(
		cfg.CommMode, cfg.AR1, cfg.AR2, cfg.SDMOptions,
		sdmMetaRead, sdmFileRead, sdmCtrRet,
		cfg.Template.UIDOffset, cfg.Template.CtrOffset,
		cfg.Template.MACInputOffset, cfg.Template.MACOffset,
	)

	_, sw, err := sess.Exchange(r, 0x5F, []byte{fileNo}, payload)
	if err != nil {
		return fmt.Errorf("ops: ChangeFileSettingsSDM: %w", err)
	}
	if sw != card.SWSecureOK {
		return fmt.Errorf("ops: ChangeFileSettingsSDM: card returned SW=%04X", sw)
	}
	return nil
}
