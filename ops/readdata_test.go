package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDataPlain_ReturnsBody(t *testing.T) {
	tr := &fakeTransceiver{response: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x90, 0x00}}
	body, err := ReadDataPlain(tr, 0x02, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, body)
}

func TestReadDataPlain_EncodesFileNoOffsetAndLength(t *testing.T) {
	tr := &fakeTransceiver{response: []byte{0x90, 0x00}}
	_, err := ReadDataPlain(tr, 0x02, 0x000102, 0x000010)
	require.NoError(t, err)
	// CLA INS P1 P2 Lc | fileNo offset(3 LE) length(3 LE) | Le
	want := []byte{0x90, 0xAD, 0x00, 0x00, 0x07, 0x02, 0x02, 0x01, 0x00, 0x10, 0x00, 0x00, 0x00}
	assert.Equal(t, want, tr.lastSent)
}

func TestReadDataPlain_RejectsBadStatus(t *testing.T) {
	tr := &fakeTransceiver{response: []byte{0x6A, 0x82}}
	_, err := ReadDataPlain(tr, 0x02, 0, 0)
	assert.Error(t, err)
}

func TestReadData_FallsBackToSecureOnPlainFailure(t *testing.T) {
	sess := testSession()
	tr := &fakeTransceiver{response: []byte{0x6A, 0x82}}
	_, err := ReadData(tr, sess, 0x02, 0, 16)
	assert.Error(t, err)
	assert.Equal(t, 2, tr.calls, "expected a plain attempt followed by a secure fallback")
}

func TestReadData_NoSessionReturnsPlainError(t *testing.T) {
	tr := &fakeTransceiver{response: []byte{0x6A, 0x82}}
	_, err := ReadData(tr, nil, 0x02, 0, 16)
	assert.Error(t, err)
	assert.Equal(t, 1, tr.calls)
}
