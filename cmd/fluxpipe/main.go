// Command fluxpipe runs community flux balance simulations over a directory of
// sample models and analyzes shadow prices.
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
