package ops

import (
	"testing"

	"ntag424ctl/sdm"
)

func TestChangeFileSettingsSDM_SendsWrappedCommand(t *testing.T) {
	sess := testSession()
	tpl, err := sdm.BuildSDMTemplate("https://example.com/tap")
	if err != nil {
		t.Fatal(err)
	}

	tr := &fakeTransceiver{response: append(make([]byte, 8), 0x91, 0x00)}
	cfg := SDMConfig{CommMode: 0x00, AR1: 0xE0, AR2: 0xEE, SDMOptions: DefaultSDMOptions, Template: tpl}
	err = ChangeFileSettingsSDM(tr, sess, 0x02, cfg)
	if err == nil {
		t.Fatal("expected a MAC-mismatch error from the scripted zero response")
	}

	sent := tr.lastSent
	if sent == nil {
		t.Fatal("no APDU captured")
	}
	if sent[0] != 0x90 || sent[1] != 0x5F {
		t.Fatalf("unexpected CLA/INS: %02X %02X", sent[0], sent[1])
	}
	if sent[5] != 0x02 {
		t.Fatalf("header (file number) = %02X, want 02", sent[5])
	}
}
