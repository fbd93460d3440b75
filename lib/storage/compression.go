package storage

import (
	"strings"

	"github.com/joshnies/survol/constants"
	"github.com/klauspost/compress/zstd"
)

// Compress an artifact with zstd before upload.
func CompressBytes(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

// Returns the content type for an object key.
func contentType(key string) string {
	if strings.HasSuffix(key, constants.CompressedSuffix) {
		return "application/zstd"
	}
	return "application/json"
}
