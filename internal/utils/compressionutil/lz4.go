package compressionutil

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

func newLZ4Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func newLZ4Writer(w io.Writer, level Level) (io.WriteCloser, error) {
	lz4Writer := lz4.NewWriter(w)

	compressionLevel := lz4.Fast
	if level == LevelBest {
		compressionLevel = lz4.Level9
	}
	if err := lz4Writer.Apply(lz4.CompressionLevelOption(compressionLevel)); err != nil {
		return nil, err
	}
	return lz4Writer, nil
}
