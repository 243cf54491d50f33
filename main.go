// Package main is the entry point for the skipguard CLI.
package main

import "skipguard.dev/pkg/skipguard/cmd"

func main() {
	cmd.Execute()
}
