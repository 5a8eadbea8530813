package device

type hostAllocator struct{}

func (hostAllocator) Device() Device { return CPU0 }

// Alloc returns zero-initialised host memory.
func (hostAllocator) Alloc(byteLen int) (Storage, error) {
	return &hostStorage{data: make([]byte, byteLen)}, nil
}

// hostStorage is ordinary Go memory. Concurrent ReadAt, WriteAt and Fill
// calls on disjoint ranges are safe; Free must not race with any of them,
// which RawTensor's reference count guarantees. A freed storage has length
// zero, so later accesses fail their range check.
type hostStorage struct {
	data []byte
}

func (h *hostStorage) Device() Device { return CPU0 }
func (h *hostStorage) ByteLen() int   { return len(h.data) }
func (h *hostStorage) Bytes() []byte  { return h.data }

func (h *hostStorage) ReadAt(dst []byte, off int) error {
	if err := checkRange(h, len(dst), off); err != nil {
		return err
	}
	copy(dst, h.data[off:])
	return nil
}

func (h *hostStorage) WriteAt(src []byte, off int) error {
	if err := checkRange(h, len(src), off); err != nil {
		return err
	}
	copy(h.data[off:], src)
	return nil
}

func (h *hostStorage) Fill(pattern []byte) error {
	if err := checkPattern(h, pattern); err != nil {
		return err
	}
	tile(h.data, pattern)
	return nil
}

func (h *hostStorage) Free() { h.data = nil }
