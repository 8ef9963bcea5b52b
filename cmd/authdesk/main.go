// Package main is the entry point for authdesk.
package main

import (
	"os"

	"github.com/dmitrijs2005/authdesk/internal/buildinfo"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = buildinfo.String()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
