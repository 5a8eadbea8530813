//go:build !unix && !windows

package serialization

import (
	"errors"
	"os"
)

func mmapFile(*os.File, int64) ([]byte, error) { return nil, errors.New("mmap not supported") }

func munmapFile([]byte) error { return nil }
