//go:build linux

package main

import (
	"bytes"
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

func hostInfo() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	}
	return fmt.Sprintf("%s %s (%s)", utsField(uts.Sysname[:]), utsField(uts.Release[:]), utsField(uts.Machine[:]))
}

func utsField(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
