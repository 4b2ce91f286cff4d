package crypto

import (
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	defaultCompressionThreshold = 1024 // 1KB
	minCompressionSavings       = 0.10 // 10% minimum savings to use compression

	// maxDecompressedSize bounds the output of a decompressed field so a
	// small crafted envelope cannot expand into an arbitrary allocation.
	maxDecompressedSize = 16 * 1024 * 1024
)

var errDecompression = errors.New("decompression failed")

var (
	// zstd encoder and decoder are thread-safe and reusable
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
		if zstdErr != nil {
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// maybeCompress compresses data when it reaches threshold and compression
// saves at least 10%. It returns the payload and its envelope flag.
func maybeCompress(data []byte, threshold int) ([]byte, byte) {
	if threshold < 0 || len(data) < threshold || len(data) == 0 {
		return data, flagRaw
	}

	encoder, _, err := initZstd()
	if err != nil {
		return data, flagRaw
	}
	compressed := encoder.EncodeAll(data, nil)

	savings := float64(len(data)-len(compressed)) / float64(len(data))
	if savings < minCompressionSavings {
		return data, flagRaw
	}
	return compressed, flagZstd
}

func decompress(data []byte, flag byte) ([]byte, error) {
	switch flag {
	case flagRaw:
		return data, nil
	case flagZstd:
		_, decoder, err := initZstd()
		if err != nil {
			return nil, err
		}
		out, err := decoder.DecodeAll(data, nil)
		if err != nil || len(out) > maxDecompressedSize {
			return nil, errDecompression
		}
		return out, nil
	default:
		return nil, errDecompression
	}
}
