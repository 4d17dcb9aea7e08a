package ev2session

import (
	"crypto/aes"
	"fmt"

	"ntag424ctl/cmac"
	"ntag424ctl/card"
)

// Exchange wraps one application command (spec §4.E), sends it over r, and
// returns the decrypted plaintext response. ins is the instruction byte,
// header is the command-specific unencrypted header (0..k bytes), and data
// is the command's encrypted payload (0..N bytes, may be empty).
//
// A Session supports at most one in-flight command at a time; Exchange
// holds the session's lock for the full wrap/transmit/unwrap sequence.
func (s *Session) Exchange(r card.Transceiver, ins byte, header, data []byte) ([]byte, uint16, error) {
	unlock := s.lock()
	defer unlock()

	if !s.Authenticated {
		return nil, 0, fmt.Errorf("ev2session: session is not authenticated")
	}

	block, err := aes.NewCipher(s.KENC[:])
	if err != nil {
		return nil, 0, fmt.Errorf("ev2session: %w", err)
	}

	// Step 1: command IV.
	ivcPlain := make([]byte, 16)
	ivcPlain[0], ivcPlain[1] = 0xA5, 0x5A
	copy(ivcPlain[2:6], s.TI[:])
	ivcPlain[6] = byte(s.CmdCtr)
	ivcPlain[7] = byte(s.CmdCtr >> 8)
	ivc := make([]byte, 16)
	block.Encrypt(ivc, ivcPlain)

	// Step 2: encrypted data.
	var enc []byte
	if len(data) > 0 {
		padded := cmac.PadM2(data)
		enc = make([]byte, len(padded))
		cbcEncrypt(block, ivc, padded, enc)
	}

	// Step 3: command MAC.
	macInput := make([]byte, 0, 1+2+4+len(header)+len(enc))
	macInput = append(macInput, ins)
	macInput = append(macInput, byte(s.CmdCtr), byte(s.CmdCtr>>8))
	macInput = append(macInput, s.TI[:]...)
	macInput = append(macInput, header...)
	macInput = append(macInput, enc...)

	macFull, err := cmac.CMAC(s.KMAC[:], macInput)
	if err != nil {
		return nil, 0, fmt.Errorf("ev2session: command MAC: %w", err)
	}
	macT, err := cmac.Truncate8(macFull)
	if err != nil {
		return nil, 0, fmt.Errorf("ev2session: command MAC: %w", err)
	}

	// Step 4: wire APDU.
	cmdData := make([]byte, 0, len(header)+len(enc)+8)
	cmdData = append(cmdData, header...)
	cmdData = append(cmdData, enc...)
	cmdData = append(cmdData, macT...)
	if len(cmdData) > 255 {
		return nil, 0, &ProtocolParameterError{Msg: fmt.Sprintf("command too large for short-form APDU: %d bytes", len(cmdData))}
	}

	// Step 5: send and inspect.
	resp, err := card.Transmit(r, card.APDU{CLA: 0x90, INS: ins, P1: 0x00, P2: 0x00, Data: cmdData, Le: le(0x00)})
	if err != nil {
		return nil, 0, &TransportError{Op: "secure exchange", Err: err}
	}
	if resp.SW1() != 0x91 {
		return nil, 0, &UnexpectedStatusError{Step: "secure exchange", Want: []uint16{0x9100}, Got: resp.SW}
	}
	if len(resp.Body) < 8 {
		return nil, 0, &ShortResponseError{Step: "secure exchange", Want: 8, Got: len(resp.Body)}
	}
	c := resp.Body[:len(resp.Body)-8]
	rmacT := resp.Body[len(resp.Body)-8:]

	// Step 6: verify response MAC.
	cmdCtrNext := s.CmdCtr + 1
	ivrPlain := make([]byte, 16)
	ivrPlain[0], ivrPlain[1] = 0x5A, 0xA5
	copy(ivrPlain[2:6], s.TI[:])
	ivrPlain[6] = byte(cmdCtrNext)
	ivrPlain[7] = byte(cmdCtrNext >> 8)
	ivr := make([]byte, 16)
	block.Encrypt(ivr, ivrPlain)

	macIn2 := make([]byte, 0, 1+2+4+len(c))
	macIn2 = append(macIn2, resp.SW2())
	macIn2 = append(macIn2, byte(cmdCtrNext), byte(cmdCtrNext>>8))
	macIn2 = append(macIn2, s.TI[:]...)
	macIn2 = append(macIn2, c...)

	mac2Full, err := cmac.CMAC(s.KMAC[:], macIn2)
	if err != nil {
		return nil, 0, fmt.Errorf("ev2session: response MAC: %w", err)
	}
	mac2T, err := cmac.Truncate8(mac2Full)
	if err != nil {
		return nil, 0, fmt.Errorf("ev2session: response MAC: %w", err)
	}

	if !constantTimeEqual(mac2T, rmacT) {
		s.fail()
		return nil, 0, &MacMismatchError{}
	}

	// Step 7: decrypt and unpad.
	var plain []byte
	if len(c) > 0 {
		decrypted := make([]byte, len(c))
		cbcDecrypt(block, ivr, c, decrypted)
		plain = cmac.UnpadM2(decrypted)
	}

	// Step 8: advance.
	s.CmdCtr = cmdCtrNext

	return plain, resp.SW, nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
