package rkg

import (
	"encoding/binary"
	"errors"
)

// Errors returned by Decompress. All are load failures per the error
// handling design: truncated input, a back-reference reaching before the
// output window, or a reference that would overrun the output buffer.
var (
	ErrYazTruncated    = errors.New("rkg: yaz payload truncated")
	ErrYazBadMagic     = errors.New("rkg: yaz bad magic")
	ErrYazUnderflow    = errors.New("rkg: yaz back-reference underflows output window")
	ErrYazOverflow     = errors.New("rkg: yaz back-reference would overrun output buffer")
	ErrYazShortWritten = errors.New("rkg: yaz decompression ended short of declared size")
)

// Decompress expands a Yaz0/Yaz1 container. The 0x10-byte header is
// magic(4) + decompressed size(u32 BE) + 8 reserved bytes; payload
// follows at offset 0x10.
func Decompress(src []byte) ([]byte, error) {
	if len(src) < 0x10 {
		return nil, ErrYazTruncated
	}
	magic := string(src[0:4])
	if magic != "Yaz0" && magic != "Yaz1" {
		return nil, ErrYazBadMagic
	}

	dstSize := binary.BigEndian.Uint32(src[4:8])
	dst := make([]byte, 0, dstSize)
	payload := src[0x10:]

	pos := 0
	for uint32(len(dst)) < dstSize {
		if pos >= len(payload) {
			return nil, ErrYazTruncated
		}
		flags := payload[pos]
		pos++

		for bit := 0; bit < 8; bit++ {
			if uint32(len(dst)) >= dstSize {
				break
			}
			literal := flags&(0x80>>uint(bit)) != 0
			if literal {
				if pos >= len(payload) {
					return nil, ErrYazTruncated
				}
				dst = append(dst, payload[pos])
				pos++
				continue
			}

			if pos+1 >= len(payload) {
				return nil, ErrYazTruncated
			}
			val := binary.BigEndian.Uint16(payload[pos : pos+2])
			pos += 2

			offset := int(val & 0x0fff)
			refSize := int(val>>12) + 2
			if refSize == 2 {
				if pos >= len(payload) {
					return nil, ErrYazTruncated
				}
				refSize = int(payload[pos]) + 0x12
				pos++
			}

			refStart := len(dst) - offset - 1
			if refStart < 0 {
				return nil, ErrYazUnderflow
			}
			if uint32(len(dst)+refSize) > dstSize {
				return nil, ErrYazOverflow
			}
			for i := 0; i < refSize; i++ {
				dst = append(dst, dst[refStart+i])
			}
		}
	}

	if uint32(len(dst)) != dstSize {
		return nil, ErrYazShortWritten
	}
	return dst, nil
}
