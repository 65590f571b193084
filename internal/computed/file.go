package computed

import (
	"github.com/vvka-141/ftmgmt/internal/checksum"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// MD5Sum returns the hex MD5 digest of the file as stored on disk.
func MD5Sum(path string, _ ftmgmt.HeaderStore, _ string) (ftmgmt.Value, error) {
	d, err := checksum.File(checksum.New(), path)
	if err != nil {
		return ftmgmt.Value{}, err
	}
	return ftmgmt.StringValue(d.Sum), nil
}

// FileSize returns the size in bytes of the file as stored on disk.
func FileSize(path string, _ ftmgmt.HeaderStore, _ string) (ftmgmt.Value, error) {
	d, err := checksum.File(checksum.New(), path)
	if err != nil {
		return ftmgmt.Value{}, err
	}
	return ftmgmt.IntValue(d.Size), nil
}
