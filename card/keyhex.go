package card

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseKeyHex parses a 16-byte AES key given as a 32-character hex string.
func ParseKeyHex(s string) ([16]byte, error) {
	var key [16]byte
	s = strings.TrimSpace(s)
	if len(s) != 32 {
		return key, fmt.Errorf("key must be 32 hex characters (16 bytes), got %d characters", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("invalid hex: %w", err)
	}
	copy(key[:], b)
	return key, nil
}

// KeyToHex formats a key for display.
func KeyToHex(key [16]byte) string {
	return strings.ToUpper(hex.EncodeToString(key[:]))
}
