// Package main provides the torchimage CLI.
//
// Usage:
//
//	torchimage version
//	torchimage devices
//	torchimage create --size 512,512 --pixel rgb --fill 255,0,0 --device cuda out.png
//	torchimage info out.safetensors
//	torchimage threshold --lower 100 in.png mask.png
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
