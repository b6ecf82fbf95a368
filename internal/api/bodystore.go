package api

import (
	"errors"
	"io"
	"os"
)

// bodyStore is a temporary file holding a PUT payload. It deliberately has no
// Close method so the HTTP transport cannot close it; the owner calls Release.
type bodyStore struct {
	f    *os.File
	size int64
}

// newBodyStore writes data to a temporary file in dir (os.TempDir when empty)
// and rewinds it for reading.
func newBodyStore(dir string, data []byte) (*bodyStore, error) {
	f, err := os.CreateTemp(dir, "bigcommerce-put-*")
	if err != nil {
		return nil, err
	}
	s := &bodyStore{f: f, size: int64(len(data))}
	if _, err := f.Write(data); err != nil {
		_ = s.Release()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = s.Release()
		return nil, err
	}
	return s, nil
}

func (s *bodyStore) Read(p []byte) (int, error) {
	return s.f.Read(p)
}

// Size returns the number of payload bytes in the store.
func (s *bodyStore) Size() int64 {
	return s.size
}

// Release closes and removes the backing file.
func (s *bodyStore) Release() error {
	return errors.Join(s.f.Close(), os.Remove(s.f.Name()))
}
