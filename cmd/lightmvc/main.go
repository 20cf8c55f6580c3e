// Command lightmvc runs and inspects a lightmvc application.
//
//	lightmvc serve --dir ./site
//	lightmvc routes
//	lightmvc migrate --conn main
//	lightmvc config --format toml
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
