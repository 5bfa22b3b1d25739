// Package main is the entry point for the pktxmt packet framing transmitter.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/pktxmt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
