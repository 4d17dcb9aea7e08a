package sdm

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHexFS(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestParseFileSettings_SDMDisabled(t *testing.T) {
	// FileType=00, FileOption=00 (SDM bit clear), AR1=E0, AR2=EE, FileSize=32(LE24).
	data := mustHexFS(t, "0000E0EE200000")
	fs, err := ParseFileSettings(data)
	if err != nil {
		t.Fatalf("ParseFileSettings: %v", err)
	}
	if fs.SDMEnabled {
		t.Error("SDMEnabled should be false")
	}
	if fs.FileSize != 32 {
		t.Errorf("FileSize = %d, want 32", fs.FileSize)
	}
	if fs.AR1 != 0xE0 || fs.AR2 != 0xEE {
		t.Errorf("AR1/AR2 = %02X/%02X", fs.AR1, fs.AR2)
	}
}

func TestParseFileSettings_TruncatedPrefix(t *testing.T) {
	if _, err := ParseFileSettings(mustHexFS(t, "000040")); err == nil {
		t.Fatal("expected ParseError for short buffer")
	}
}

// TestFileSettingsRoundTrip reproduces spec §8's round-trip property: parsing
// the buffer produced by Build yields the same fields Build emitted, for the
// UID+ReadCounter ASCII-mirroring configuration this tool programs.
func TestFileSettingsRoundTrip(t *testing.T) {
	const (
		cm         = byte(0x00)
		ar1        = byte(0xE0)
		ar2        = byte(0xEE)
		sdmOptions = byte(0xC1) // UID + ReadCtr mirroring, ASCII mode
		meta       = byte(0x0E)
		file       = byte(0x02)
		ctr        = byte(0x00)
	)
	uidOffset := uint32(27)
	ctrOffset := uint32(46)
	macInputOffset := uint32(23)
	macOffset := uint32(58)

	payload := BuildFileSettings(cm, ar1, ar2, sdmOptions, meta, file, ctr, uidOffset, ctrOffset, macInputOffset, macOffset)

	fs, err := ParseFileSettings(buildFullFileSettings(payload))
	if err != nil {
		t.Fatalf("ParseFileSettings(Build(...)): %v", err)
	}

	if !fs.SDMEnabled {
		t.Fatal("SDMEnabled should be true")
	}
	if fs.AR1 != ar1 || fs.AR2 != ar2 {
		t.Errorf("AR1/AR2 = %02X/%02X, want %02X/%02X", fs.AR1, fs.AR2, ar1, ar2)
	}
	if fs.SDMOptions != sdmOptions {
		t.Errorf("SDMOptions = %02X, want %02X", fs.SDMOptions, sdmOptions)
	}
	if fs.SDMMetaRead != meta || fs.SDMFileRead != file || fs.SDMCtrRet != ctr {
		t.Errorf("nibbles = %X/%X/%X, want %X/%X/%X", fs.SDMMetaRead, fs.SDMFileRead, fs.SDMCtrRet, meta, file, ctr)
	}
	if fs.UIDOffset == nil || *fs.UIDOffset != uidOffset {
		t.Errorf("UIDOffset = %v, want %d", fs.UIDOffset, uidOffset)
	}
	if fs.SDMReadCtrOffset == nil || *fs.SDMReadCtrOffset != ctrOffset {
		t.Errorf("SDMReadCtrOffset = %v, want %d", fs.SDMReadCtrOffset, ctrOffset)
	}
	if fs.SDMMACInputOffset == nil || *fs.SDMMACInputOffset != macInputOffset {
		t.Errorf("SDMMACInputOffset = %v, want %d", fs.SDMMACInputOffset, macInputOffset)
	}
	if fs.SDMMACOffset == nil || *fs.SDMMACOffset != macOffset {
		t.Errorf("SDMMACOffset = %v, want %d", fs.SDMMACOffset, macOffset)
	}
	// This configuration never emits PICCDataOffset (Meta=0x0E > 0x04) or
	// the ENC pair (SDMOptions bit 0x10 clear) or a counter limit
	// (SDMOptions bit 0x20 clear).
	if fs.PICCDataOffset != nil {
		t.Error("PICCDataOffset should be absent when SDMMetaRead == 0x0E")
	}
	if fs.SDMENCOffset != nil || fs.SDMENCLength != nil {
		t.Error("ENC fields should be absent; this tool never emits them")
	}
	if fs.SDMReadCtrLimit != nil {
		t.Error("SDMReadCtrLimit should be absent when SDMOptions bit 0x20 is clear")
	}
}

// buildFullFileSettings reassembles a ParseFileSettings-shaped buffer from
// Build's output. Build emits FileOption||AR1||AR2||SDMOptions||SDM_AR||tail
// (no FileType/FileSize, since ChangeFileSettings never sets those); Parse
// expects FileType||FileOption||AR1||AR2||FileSize||SDMOptions||SDM_AR||tail.
func buildFullFileSettings(tail []byte) []byte {
	out := make([]byte, 0, 4+len(tail))
	out = append(out, 0x00)          // FileType
	out = append(out, tail[0])       // FileOption
	out = append(out, tail[1], tail[2]) // AR1, AR2
	out = append(out, 0x00, 0x00, 0x00) // FileSize (3 bytes LE)
	out = append(out, tail[3:]...)   // SDMOptions, SDM_AR, offsets...
	return out
}

func TestBuildFileSettings_OmitsMetaFieldsWhenMetaNotE(t *testing.T) {
	payload := BuildFileSettings(0x00, 0xE0, 0xEE, 0x01, 0x00, 0x02, 0x00, 0, 0, 10, 20)
	// FileOption AR1 AR2 SDMOptions SDM_AR(2) MACInput(3) MAC(3) = 12 bytes,
	// since Meta != 0x0E suppresses UIDOffset and SDMOptions bit 0x40 is clear.
	if len(payload) != 12 {
		t.Fatalf("len(payload) = %d, want 12", len(payload))
	}
	if !bytes.Equal(payload[6:9], []byte{10, 0, 0}) {
		t.Errorf("MACInputOffset bytes = %X", payload[6:9])
	}
	if !bytes.Equal(payload[9:12], []byte{20, 0, 0}) {
		t.Errorf("MACOffset bytes = %X", payload[9:12])
	}
}
