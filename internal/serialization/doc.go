// Package serialization reads and writes tensors and images in the
// SafeTensors format, so that pixel buffers can be exchanged with PyTorch
// (safetensors.torch.load_file) and other tools.
//
//	File structure:
//	  [8 bytes: header size N (uint64 LE)]
//	  [N bytes: JSON header, space padded to a multiple of 8]
//	  [tensor data: raw little-endian bytes]
//
// The JSON header maps tensor names to {dtype, shape, data_offsets}, with
// offsets relative to the start of the data section, plus an optional
// "__metadata__" map of strings. Images are stored as a single tensor named
// "pixels" whose shape is the image's tensor size; region, spacing, origin,
// direction and pixel type travel in the metadata.
//
// Example usage:
//
//	if err := serialization.WriteImage("ct.safetensors", img); err != nil {
//	    log.Fatal(err)
//	}
//	img, err := serialization.ReadImage("ct.safetensors", pixel.Scalar[int16](), device.CPU0)
package serialization
