package survey

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// gzipFile pairs a gzip stream with the file underneath so both close.
type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	if err := g.Reader.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// openMaybeGzip opens path, transparently decompressing when the name
// ends in .gz.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}
