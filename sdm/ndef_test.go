package sdm

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// TestBuildSDMTemplate_ExampleVector reproduces spec §8 scenario 4: the 25
// record bytes following the 2-byte NLEN field and the four reported
// offsets for base="https://example.com/tap".
func TestBuildSDMTemplate_ExampleVector(t *testing.T) {
	tpl, err := BuildSDMTemplate("https://example.com/tap")
	if err != nil {
		t.Fatalf("BuildSDMTemplate: %v", err)
	}

	// D1 01 <payload_len> 55 <code> followed by the literal, uncompressed
	// "example.com/tap?uid=" text. payload_len is 0x43: the code byte plus
	// the 66-byte URI, which includes the 14/6/16-byte placeholders.
	want, err := hex.DecodeString("D1014355046578616D706C652E636F6D2F7461703F7569643D")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tpl.NDEF[2:2+len(want)], want) {
		t.Errorf("record body = %X, want %X", tpl.NDEF[2:2+len(want)], want)
	}

	if tpl.UIDOffset != 27 {
		t.Errorf("UIDOffset = %d, want 27", tpl.UIDOffset)
	}
	if tpl.CtrOffset != 46 {
		t.Errorf("CtrOffset = %d, want 46", tpl.CtrOffset)
	}
	// MACOffset follows the 6-byte counter placeholder and the 5-byte
	// "&mac=" literal.
	if want := tpl.CtrOffset + 6 + 5; tpl.MACOffset != want {
		t.Errorf("MACOffset = %d, want %d", tpl.MACOffset, want)
	}
	if tpl.MACInputOffset != 23 {
		t.Errorf("MACInputOffset = %d, want 23", tpl.MACInputOffset)
	}
}

// TestBuildSDMTemplate_PlaceholdersAreIdempotent reproduces spec §8's
// idempotence property: the placeholder spans are all ASCII '0' (0x30) at
// the reported offsets, for every prefix-compression case.
func TestBuildSDMTemplate_PlaceholdersAreIdempotent(t *testing.T) {
	for _, base := range []string{
		"https://www.example.com/t",
		"http://www.example.com/t",
		"https://example.com/t",
		"http://example.com/t",
		"ntag424://example.com/t", // no recognized prefix
	} {
		tpl, err := BuildSDMTemplate(base)
		if err != nil {
			t.Fatalf("BuildSDMTemplate(%q): %v", base, err)
		}
		assertAllZero(t, base, tpl.NDEF, int(tpl.UIDOffset), 14)
		assertAllZero(t, base, tpl.NDEF, int(tpl.CtrOffset), 6)
		assertAllZero(t, base, tpl.NDEF, int(tpl.MACOffset), 16)
	}
}

func assertAllZero(t *testing.T, base string, ndef []byte, offset, length int) {
	t.Helper()
	span := ndef[offset : offset+length]
	for _, b := range span {
		if b != '0' {
			t.Errorf("%s: span at %d..%d not all '0': %q", base, offset, offset+length, span)
			return
		}
	}
}

func TestBuildSDMTemplate_RejectsOversizedURL(t *testing.T) {
	huge := make([]byte, 400)
	for i := range huge {
		huge[i] = 'a'
	}
	_, err := BuildSDMTemplate("https://" + string(huge))
	if err == nil {
		t.Fatal("expected error for oversized URL")
	}
}
