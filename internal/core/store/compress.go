package store

import (
	"github.com/fenilsonani/castor/internal/core/storeerr"
	"github.com/klauspost/compress/zstd"
)

// CompressionThreshold is the payload-size gate from spec.md §4.5:
// payloads strictly smaller are stored uncompressed; payloads at or
// above this size are compressed with zstd.
const CompressionThreshold = 4096

func newEncoder() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(3)),
		zstd.WithEncoderConcurrency(1),
	)
}

func newDecoder() (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

func (s *Store) compress(data []byte) ([]byte, error) {
	out := s.zEnc.EncodeAll(data, make([]byte, 0, len(data)))
	return out, nil
}

func (s *Store) decompress(data []byte) ([]byte, error) {
	out, err := s.zDec.DecodeAll(data, nil)
	if err != nil {
		return nil, storeerr.New(storeerr.KindCorrupted, "decompress", err)
	}
	return out, nil
}
