// Package encoding packs chunk columns for the observer feed.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrLength = errors.New("rle: decoded length mismatch")

// EncodeRuns encodes palette ids as base64 of (id, run) uvarint pairs.
func EncodeRuns(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(ids); {
		id := ids[i]
		run := 1
		for i+run < len(ids) && ids[i+run] == id {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(id))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRuns reverses EncodeRuns. The result must hold exactly want ids;
// runs overshooting want are rejected before anything is allocated for them.
func DecodeRuns(s string, want int) ([]uint16, error) {
	if want < 0 {
		return nil, ErrLength
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, want)
	for i := 0; i < len(raw); {
		id, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("rle: bad id at byte %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("rle: bad run at byte %d", i)
		}
		i += n
		if id > 0xFFFF {
			return nil, fmt.Errorf("rle: id %d out of range", id)
		}
		if run == 0 || run > uint64(want-len(out)) {
			return nil, ErrLength
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(id))
		}
	}
	if len(out) != want {
		return nil, ErrLength
	}
	return out, nil
}
