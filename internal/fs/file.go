package fs

import (
	"io"
)

// File is an open disk image or block device.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Name() string
	Size() int64
	Sync() error
}
