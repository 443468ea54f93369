// Package chunker implements FastCDC-2020 content-defined chunking
// (Xia et al., https://ieeexplore.ieee.org/document/9055082), adapted
// to the store's fixed size profile of 128 KiB/512 KiB/1 MiB
// (min/avg/max). It uses the paper's 2-byte rolling optimization
// (section 3.7) for the gear hash.
package chunker

import (
	"fmt"
	"io"
	"math/bits"
)

// DefaultMinSize, DefaultAvgSize, and DefaultMaxSize are the store's
// fixed chunking thresholds. AvgSize must stay a power of two for the
// normalized mask table below.
const (
	DefaultMinSize = 128 * 1024
	DefaultAvgSize = 512 * 1024
	DefaultMaxSize = 1024 * 1024
)

// normalization controls how strongly chunk sizes are pulled toward
// AvgSize. Level 2 gives the best dedup/consistency tradeoff per the
// FastCDC 2020 paper's own benchmarks.
const normalization = 2

// Chunk is one content-defined segment of the input stream.
type Chunk struct {
	Offset int64
	Data   []byte
}

// Chunker splits a byte stream into variable-size chunks. Every chunk
// it produces satisfies min <= len(Data) <= max, except possibly the
// final chunk of the stream, which may be shorter than min.
type Chunker struct {
	minSize, maxSize, avgSize int

	maskSmall, maskSmallShifted uint64
	maskLarge, maskLargeShifted uint64

	reader io.Reader

	buf       []byte
	bufCursor int
	bufEnd    int
	streamPos int64
	eof       bool
}

// New returns a Chunker reading from r with the store's fixed
// min/avg/max chunk size profile.
func New(r io.Reader) (*Chunker, error) {
	return NewWithSizes(r, DefaultMinSize, DefaultAvgSize, DefaultMaxSize)
}

// NewWithSizes returns a Chunker with an explicit size profile. avg
// must be a power of two and min < avg < max.
func NewWithSizes(r io.Reader, min, avg, max int) (*Chunker, error) {
	if min <= 0 || avg <= 0 || max <= 0 {
		return nil, fmt.Errorf("chunker: sizes must be positive (min=%d avg=%d max=%d)", min, avg, max)
	}
	if avg&(avg-1) != 0 {
		return nil, fmt.Errorf("chunker: avg size %d must be a power of two", avg)
	}
	if !(min < avg && avg < max) {
		return nil, fmt.Errorf("chunker: sizes must satisfy min < avg < max (min=%d avg=%d max=%d)", min, avg, max)
	}

	log2Avg := bits.TrailingZeros(uint(avg))
	smallBits := log2Avg + normalization
	largeBits := log2Avg - normalization
	if smallBits >= len(masks) || largeBits < 0 {
		return nil, fmt.Errorf("chunker: avg size %d out of supported range", avg)
	}

	maskS := masks[smallBits]
	maskL := masks[largeBits]

	bufSize := max * 2
	return &Chunker{
		minSize:          min,
		maxSize:          max,
		avgSize:          avg,
		maskSmall:        maskS,
		maskSmallShifted: maskS << 1,
		maskLarge:        maskL,
		maskLargeShifted: maskL << 1,
		reader:           r,
		buf:              make([]byte, bufSize),
		bufCursor:        bufSize,
		bufEnd:           bufSize,
	}, nil
}

func (c *Chunker) fillBuffer() error {
	available := c.bufEnd - c.bufCursor
	if available >= c.maxSize {
		return nil
	}
	copy(c.buf[:available], c.buf[c.bufCursor:c.bufEnd])
	c.bufCursor = 0

	if c.eof {
		c.bufEnd = available
		return nil
	}

	n, err := io.ReadFull(c.reader, c.buf[available:])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		c.bufEnd = available + n
		c.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("chunker: read: %w", err)
	}
	c.bufEnd = available + n
	return nil
}

// Next returns the next chunk, or io.EOF once the stream is exhausted.
// The returned Chunk.Data slice is only valid until the next call to
// Next; callers that need to retain it must copy it.
func (c *Chunker) Next() (Chunk, error) {
	if err := c.fillBuffer(); err != nil {
		return Chunk{}, err
	}
	if c.bufEnd == c.bufCursor {
		return Chunk{}, io.EOF
	}

	length := c.cut(c.buf[c.bufCursor:c.bufEnd])
	chunk := Chunk{
		Offset: c.streamPos,
		Data:   c.buf[c.bufCursor : c.bufCursor+length],
	}
	c.bufCursor += length
	c.streamPos += int64(length)
	return chunk, nil
}

// cut finds the boundary of the next chunk within data, returning its
// length. data may contain more than one chunk's worth of bytes.
func (c *Chunker) cut(data []byte) int {
	n := len(data)
	if n <= c.minSize {
		return n
	}

	maxBoundary := n
	if maxBoundary > c.maxSize {
		maxBoundary = c.maxSize
	}
	normalizeBoundary := c.avgSize
	if normalizeBoundary > maxBoundary {
		normalizeBoundary = maxBoundary
	}

	scanStart := c.minSize &^ 1
	normalizeAt := normalizeBoundary &^ 1
	scanEnd := maxBoundary &^ 1

	var fp uint64

	for i := scanStart; i < normalizeAt; i += 2 {
		fp = (fp << 2) + gearShifted[data[i]]
		if fp&c.maskSmallShifted == 0 {
			return i
		}
		fp += gear[data[i+1]]
		if fp&c.maskSmall == 0 {
			return i + 1
		}
	}
	for i := normalizeAt; i < scanEnd; i += 2 {
		fp = (fp << 2) + gearShifted[data[i]]
		if fp&c.maskLargeShifted == 0 {
			return i
		}
		fp += gear[data[i+1]]
		if fp&c.maskLarge == 0 {
			return i + 1
		}
	}
	return maxBoundary
}

// Split reads r to completion and returns every chunk's bytes, copied
// out of the internal buffer so they remain valid after Split returns.
// Callers ingesting very large files should prefer Next for streaming.
func Split(r io.Reader) ([][]byte, error) {
	c, err := New(r)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		buf := make([]byte, len(chunk.Data))
		copy(buf, chunk.Data)
		out = append(out, buf)
	}
}
