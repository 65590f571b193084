package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Digest is the checksum and byte count of one stream.
type Digest struct {
	Sum  string
	Size int64
}

// Calculator computes a Digest from a stream.
type Calculator interface {
	Calculate(r io.Reader) (Digest, error)
}

// MD5 computes hex-encoded MD5 digests, the form archive file catalogs
// record in their md5sum column.
type MD5 struct{}

// New returns an MD5 calculator.
func New() MD5 {
	return MD5{}
}

// Calculate reads r to the end.
func (MD5) Calculate(r io.Reader) (Digest, error) {
	h := md5.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return Digest{}, err
	}
	return Digest{Sum: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}

// File computes the digest of the file at path with c.
func File(c Calculator, path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Digest{}, fmt.Errorf("%w: %s", ftmgmt.ErrFileNotFound, path)
		}
		return Digest{}, err
	}
	defer f.Close()

	d, err := c.Calculate(f)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return d, nil
}
