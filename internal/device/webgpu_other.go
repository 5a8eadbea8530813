//go:build !windows

package device

import (
	"fmt"
	"runtime"
)

func openWebGPU(int) (Allocator, error) {
	return nil, fmt.Errorf("webgpu binding not supported on %s", runtime.GOOS)
}
