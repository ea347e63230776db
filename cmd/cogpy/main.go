// Command cogpy runs box-layout experiments described by a TOML file.
package main

import (
	"os"
	"runtime"
)

func init() {
	// SDL3 requires the main thread for some operations.
	runtime.LockOSThread()
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
