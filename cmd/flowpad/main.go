// Command flowpad serves the diagram editor backend and exports diagrams
// from the command line.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		Bad.Fprintf(os.Stderr, "flowpad: %v\n", err)
		os.Exit(1)
	}
}
