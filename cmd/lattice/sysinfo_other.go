//go:build !linux

package main

import (
	"fmt"
	"runtime"
)

func hostInfo() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
