package fs

import (
	"fmt"
	"os"
)

type device struct {
	*os.File
	size int64
}

func (d *device) Size() int64 {
	return d.size
}

// Open opens an image file or block device. The handle is read-only unless
// writable is set.
func Open(path string, writable bool) (File, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}

	size, err := deviceSize(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to determine size of %q: %w", path, err)
	}
	return &device{File: f, size: size}, nil
}
