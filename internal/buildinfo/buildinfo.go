// Package buildinfo exposes version data injected at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/linkdrop/internal/buildinfo.Version=v1.2.0"
package buildinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// commit falls back to the VCS revision recorded by the Go toolchain.
func commit() string {
	if Commit != "N/A" {
		return Commit
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return Commit
}

func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", commit())
}
