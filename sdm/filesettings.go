// Package sdm implements the FileSettings TLV codec and the SDM NDEF
// template builder (spec components F and G): the variable-layout metadata
// that turns on UID/counter/CMAC mirroring for a data file, and the
// byte-exact NDEF record those mirrored values are written into.
package sdm

// FileSettings is the parsed form of an NTAG 424 DNA FileSettings record
// (spec §4.F). The tail fields beyond AR2/FileSize are only populated when
// SDM is enabled, and only the subset the predicate table marks present for
// this particular SDMOptions/SDMMetaRead/SDMFileRead combination is
// non-nil.
type FileSettings struct {
	FileType   byte
	FileOption byte
	AR1        byte
	AR2        byte
	FileSize   uint32

	SDMEnabled  bool
	SDMOptions  byte
	SDMMetaRead byte
	SDMFileRead byte
	SDMCtrRet   byte

	UIDOffset         *uint32
	SDMReadCtrOffset  *uint32
	PICCDataOffset    *uint32
	SDMMACInputOffset *uint32
	SDMENCOffset      *uint32
	SDMENCLength      *uint32
	SDMMACOffset      *uint32
	SDMReadCtrLimit   *uint32
}

// ParseFileSettings decodes a FileSettings GetFileSettings response body
// (spec §4.F Parse). The tail fields are consumed strictly in the order the
// predicate table specifies; a field present out of order would silently
// misalign everything after it, so each predicate is evaluated against the
// fields already read, never against raw byte offsets.
func ParseFileSettings(data []byte) (*FileSettings, error) {
	if len(data) < 7 {
		return nil, &ParseError{Msg: "buffer shorter than the 7-byte fixed prefix"}
	}

	fs := &FileSettings{
		FileType:   data[0],
		FileOption: data[1],
		AR1:        data[2],
		AR2:        data[3],
		FileSize:   readU24LE(data[4:7]),
	}

	if fs.FileOption&0x40 == 0 {
		return fs, nil
	}
	fs.SDMEnabled = true

	idx := 7
	if len(data) < idx+3 {
		return nil, &ParseError{Msg: "truncated before SDMOptions/SDMAccessRights"}
	}
	sdmOptions := data[idx]
	sdmAR := uint16(data[idx+1]) | uint16(data[idx+2])<<8
	idx += 3

	fs.SDMOptions = sdmOptions
	fs.SDMMetaRead = byte(sdmAR>>12) & 0x0F
	fs.SDMFileRead = byte(sdmAR>>8) & 0x0F
	fs.SDMCtrRet = byte(sdmAR) & 0x0F

	if sdmOptions&0x80 != 0 && fs.SDMMetaRead == 0x0E {
		if len(data) < idx+3 {
			return nil, &ParseError{Msg: "truncated before UIDOffset"}
		}
		v := readU24LE(data[idx : idx+3])
		fs.UIDOffset = &v
		idx += 3
	}

	if sdmOptions&0x40 != 0 && fs.SDMMetaRead == 0x0E {
		if len(data) < idx+3 {
			return nil, &ParseError{Msg: "truncated before SDMReadCtrOffset"}
		}
		v := readU24LE(data[idx : idx+3])
		fs.SDMReadCtrOffset = &v
		idx += 3
	}

	if fs.SDMMetaRead <= 0x04 {
		if len(data) < idx+3 {
			return nil, &ParseError{Msg: "truncated before PICCDataOffset"}
		}
		v := readU24LE(data[idx : idx+3])
		fs.PICCDataOffset = &v
		idx += 3
	}

	if fs.SDMFileRead != 0x0F {
		if len(data) < idx+3 {
			return nil, &ParseError{Msg: "truncated before SDMMACInputOffset"}
		}
		v := readU24LE(data[idx : idx+3])
		fs.SDMMACInputOffset = &v
		idx += 3
	}

	if fs.SDMFileRead != 0x0F && sdmOptions&0x10 != 0 {
		if len(data) < idx+6 {
			return nil, &ParseError{Msg: "truncated before SDMENCOffset/SDMENCLength"}
		}
		off := readU24LE(data[idx : idx+3])
		ln := readU24LE(data[idx+3 : idx+6])
		fs.SDMENCOffset = &off
		fs.SDMENCLength = &ln
		idx += 6
	}

	if fs.SDMFileRead != 0x0F {
		if len(data) < idx+3 {
			return nil, &ParseError{Msg: "truncated before SDMMACOffset"}
		}
		v := readU24LE(data[idx : idx+3])
		fs.SDMMACOffset = &v
		idx += 3
	}

	if sdmOptions&0x20 != 0 {
		if len(data) < idx+3 {
			return nil, &ParseError{Msg: "truncated before SDMReadCtrLimit"}
		}
		v := readU24LE(data[idx : idx+3])
		fs.SDMReadCtrLimit = &v
		idx += 3
	}

	return fs, nil
}

// BuildFileSettings encodes a ChangeFileSettings payload enabling SDM on a
// data file (spec §4.F Build). cm is the communication mode (0..3); the
// four offsets are written only when the predicate table requires them for
// the given meta/file nibbles. This tool never emits the ENC fields or a
// counter limit, mirroring the one SDM configuration the orchestrators
// actually program (UID+counter mirroring in plain ASCII, no encrypted
// mirror field).
func BuildFileSettings(cm, ar1, ar2, sdmOptions, meta, file, ctr byte, uidOffset, ctrOffset, macInputOffset, macOffset uint32) []byte {
	fileOption := (cm & 0x03) | 0x40
	sdmAR := uint16(meta&0x0F)<<12 | uint16(file&0x0F)<<8 | 0x0F<<4 | uint16(ctr&0x0F)

	out := make([]byte, 0, 6+4*3)
	out = append(out, fileOption, ar1, ar2, sdmOptions, byte(sdmAR), byte(sdmAR>>8))

	if sdmOptions&0x80 != 0 && meta == 0x0E {
		out = append(out, writeU24LE(uidOffset)...)
	}
	if sdmOptions&0x40 != 0 && meta == 0x0E {
		out = append(out, writeU24LE(ctrOffset)...)
	}
	if file != 0x0F {
		out = append(out, writeU24LE(macInputOffset)...)
	}
	if file != 0x0F {
		out = append(out, writeU24LE(macOffset)...)
	}
	return out
}

func readU24LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func writeU24LE(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16)}
}
