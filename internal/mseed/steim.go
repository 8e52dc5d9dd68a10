package mseed

import (
	"encoding/binary"
	"fmt"
)

const steimFrameLen = 64

// decodeSteim unpacks STEIM1 or STEIM2 compressed data. The data section is
// a sequence of 64-byte frames; each frame holds a control word followed by
// 15 data words whose interpretation the control word's 2-bit nibbles
// select. The first frame additionally carries the forward and reverse
// integration constants in words 1 and 2.
func decodeSteim(data []byte, order binary.ByteOrder, n, level int) ([]float64, error) {
	if len(data) < steimFrameLen {
		return nil, fmt.Errorf("steim%d data shorter than one frame", level)
	}

	x0 := int32(order.Uint32(data[4:8]))

	diffs := make([]int32, 0, n+8)

	for frameStart := 0; frameStart+steimFrameLen <= len(data) && len(diffs) <= n; frameStart += steimFrameLen {
		frame := data[frameStart : frameStart+steimFrameLen]
		control := order.Uint32(frame[0:4])

		for w := 1; w < 16; w++ {
			nibble := (control >> (2 * (15 - w))) & 0x3
			if nibble == 0 {
				// Non-data word: header constants or padding.
				continue
			}

			word := order.Uint32(frame[4*w : 4*w+4])

			switch level {
			case 1:
				diffs = appendSteim1Word(diffs, nibble, word)
			case 2:
				diffs = appendSteim2Word(diffs, nibble, word)
			}
		}
	}

	if len(diffs) < n {
		return nil, fmt.Errorf("steim%d data truncated: need %d samples, decoded %d differences", level, n, len(diffs))
	}

	// The first difference relates sample 0 to the previous record and is
	// superseded by the forward integration constant. The reverse constant
	// is not verified; tolerating a mismatch matches common readers.
	out := make([]float64, n)
	current := x0
	out[0] = float64(current)

	for i := 1; i < n; i++ {
		current += diffs[i]
		out[i] = float64(current)
	}

	return out, nil
}

func appendSteim1Word(diffs []int32, nibble, word uint32) []int32 {
	switch nibble {
	case 1:
		return append(diffs,
			int32(int8(word>>24)),
			int32(int8(word>>16)),
			int32(int8(word>>8)),
			int32(int8(word)),
		)
	case 2:
		return append(diffs,
			int32(int16(word>>16)),
			int32(int16(word)),
		)
	default:
		return append(diffs, int32(word))
	}
}

func appendSteim2Word(diffs []int32, nibble, word uint32) []int32 {
	switch nibble {
	case 1:
		return append(diffs,
			int32(int8(word>>24)),
			int32(int8(word>>16)),
			int32(int8(word>>8)),
			int32(int8(word)),
		)
	case 2:
		switch word >> 30 {
		case 1:
			return append(diffs, signExtend(word, 30))
		case 2:
			return append(diffs,
				signExtend(word>>15, 15),
				signExtend(word, 15),
			)
		case 3:
			return append(diffs,
				signExtend(word>>20, 10),
				signExtend(word>>10, 10),
				signExtend(word, 10),
			)
		default:
			return diffs
		}
	default:
		switch word >> 30 {
		case 0:
			return append(diffs,
				signExtend(word>>24, 6),
				signExtend(word>>18, 6),
				signExtend(word>>12, 6),
				signExtend(word>>6, 6),
				signExtend(word, 6),
			)
		case 1:
			return append(diffs,
				signExtend(word>>25, 5),
				signExtend(word>>20, 5),
				signExtend(word>>15, 5),
				signExtend(word>>10, 5),
				signExtend(word>>5, 5),
				signExtend(word, 5),
			)
		case 2:
			return append(diffs,
				signExtend(word>>24, 4),
				signExtend(word>>20, 4),
				signExtend(word>>16, 4),
				signExtend(word>>12, 4),
				signExtend(word>>8, 4),
				signExtend(word>>4, 4),
				signExtend(word, 4),
			)
		default:
			return diffs
		}
	}
}

// signExtend interprets the low bits of v as a signed two's-complement
// value of the given width.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits

	return int32(v<<shift) >> shift
}
