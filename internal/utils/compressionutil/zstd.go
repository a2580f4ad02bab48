package compressionutil

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

func newZSTDReader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

func newZSTDWriter(w io.Writer, level Level) (io.WriteCloser, error) {
	encoderLevel := zstd.SpeedDefault
	switch level {
	case LevelFastest:
		encoderLevel = zstd.SpeedFastest
	case LevelBest:
		encoderLevel = zstd.SpeedBestCompression
	}
	return zstd.NewWriter(w, zstd.WithEncoderLevel(encoderLevel))
}
