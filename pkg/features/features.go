// Package features turns file content into the fixed-width token rows
// consumed by the model.
//
// A row is the concatenation of three windows: the start of the content
// with leading whitespace stripped, an optional centred middle window,
// and the end of the content with trailing whitespace stripped. Each
// byte becomes one token; windows shorter than their configured size
// are filled with the padding token.
package features

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"

	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
	"github.com/emergingrobotics/go-magika/pkg/model"
)

const whitespace = " \t\n\r\v\f"

// Features is the extracted input for one piece of content
type Features struct {
	Beg  []int32
	Mid  []int32
	End  []int32
	Head []byte
	Size int64

	padding int32
}

// Flatten returns beg, mid and end as one model input row
func (f Features) Flatten() []int32 {
	row := make([]int32, 0, len(f.Beg)+len(f.Mid)+len(f.End))
	row = append(row, f.Beg...)
	row = append(row, f.Mid...)
	return append(row, f.End...)
}

// Short reports whether fewer than min leading tokens carry real bytes
func (f Features) Short(min int) bool {
	if min <= 0 {
		return false
	}
	if min > len(f.Beg) {
		return true
	}
	return f.Beg[min-1] == f.padding
}

// Extractor builds features according to a model config
type Extractor struct {
	begSize   int
	midSize   int
	endSize   int
	blockSize int
	padding   int32
}

// NewExtractor creates an extractor for cfg
func NewExtractor(cfg model.Config) *Extractor {
	return &Extractor{
		begSize:   cfg.BegSize,
		midSize:   cfg.MidSize,
		endSize:   cfg.EndSize,
		blockSize: cfg.BlockSize,
		padding:   cfg.PaddingToken,
	}
}

// Width returns the length of a flattened row
func (e *Extractor) Width() int {
	return e.begSize + e.midSize + e.endSize
}

// FromBytes extracts features from in-memory content
func (e *Extractor) FromBytes(content []byte) Features {
	size := int64(len(content))
	block := e.blockLen(size)

	head := content[:block]
	tail := content[len(content)-block:]

	var mid []byte
	if e.midSize > 0 {
		start, n := e.midWindow(size)
		mid = content[start : start+int64(n)]
	}

	return e.build(head, mid, tail, size)
}

// FromReaderAt extracts features by reading only the needed windows of r
func (e *Extractor) FromReaderAt(r io.ReaderAt, size int64) (Features, error) {
	if size < 0 {
		return Features{}, magikaerr.IO(fmt.Errorf("negative size %d: %w", size, fs.ErrInvalid))
	}
	block := e.blockLen(size)

	head, err := readAt(r, 0, block)
	if err != nil {
		return Features{}, err
	}

	tail := head
	if size > int64(block) {
		if tail, err = readAt(r, size-int64(block), block); err != nil {
			return Features{}, err
		}
	}

	var mid []byte
	if e.midSize > 0 {
		start, n := e.midWindow(size)
		if mid, err = readAt(r, start, n); err != nil {
			return Features{}, err
		}
	}

	return e.build(head, mid, tail, size), nil
}

func (e *Extractor) blockLen(size int64) int {
	if size < int64(e.blockSize) {
		return int(size)
	}
	return e.blockSize
}

func (e *Extractor) midWindow(size int64) (start int64, n int) {
	if size <= int64(e.midSize) {
		return 0, int(size)
	}
	return (size - int64(e.midSize)) / 2, e.midSize
}

func (e *Extractor) build(head, mid, tail []byte, size int64) Features {
	beg := bytes.TrimLeft(head, whitespace)
	if len(beg) > e.begSize {
		beg = beg[:e.begSize]
	}

	end := bytes.TrimRight(tail, whitespace)
	if len(end) > e.endSize {
		end = end[len(end)-e.endSize:]
	}

	f := Features{
		Beg:     e.padRight(beg, e.begSize),
		End:     e.padLeft(end, e.endSize),
		Head:    append([]byte(nil), head...),
		Size:    size,
		padding: e.padding,
	}
	if e.midSize > 0 {
		f.Mid = e.padCentre(mid, e.midSize)
	}
	return f
}

func (e *Extractor) padRight(b []byte, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		if i < len(b) {
			out[i] = int32(b[i])
		} else {
			out[i] = e.padding
		}
	}
	return out
}

func (e *Extractor) padLeft(b []byte, n int) []int32 {
	out := make([]int32, n)
	offset := n - len(b)
	for i := range out {
		if i >= offset {
			out[i] = int32(b[i-offset])
		} else {
			out[i] = e.padding
		}
	}
	return out
}

// padCentre places b in the middle of n tokens; an odd remainder goes right
func (e *Extractor) padCentre(b []byte, n int) []int32 {
	out := make([]int32, n)
	offset := (n - len(b)) / 2
	for i := range out {
		j := i - offset
		if j >= 0 && j < len(b) {
			out[i] = int32(b[j])
		} else {
			out[i] = e.padding
		}
	}
	return out
}

func readAt(r io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	read, err := r.ReadAt(buf, off)
	if read == n {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, magikaerr.IO(err)
}
