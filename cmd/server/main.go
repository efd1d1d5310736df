package main

import (
	"fmt"
	"os"
)

// version can be set during build with -ldflags
var version = "dev"

func main() {
	rootCmd := newRootCmd()
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
