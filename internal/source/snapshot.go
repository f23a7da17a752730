package source

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/glowcart/internal/domain/product"
)

var _ product.Source = (*Snapshot)(nil)

// Snapshot serves the product list from a gzip-compressed catalog payload on
// disk. It is a development fixture for running without network access.
type Snapshot struct {
	path string
}

// NewSnapshot returns a Snapshot reading from path.
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Fetch reads and decodes the snapshot file.
func (s *Snapshot) Fetch(ctx context.Context) ([]product.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", s.path)
	}
	defer func() { _ = gz.Close() }()

	data, err := io.ReadAll(io.LimitReader(gz, maxPayloadSize))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	return DecodePayload(data)
}

// WriteSnapshot writes records to path as a gzip-compressed catalog payload.
// The file is replaced atomically.
func WriteSnapshot(path string, records []product.RawRecord) (rerr error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() {
		if rerr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	gz := pgzip.NewWriter(tmp)
	if _, err := gz.Write(EncodePayload(records)); err != nil {
		return errors.Wrap(err, "write payload")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "rename snapshot")
	}
	return nil
}
