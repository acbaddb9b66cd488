// Package main is the entry point for the mvx CLI tool.
package main

import (
	"mvx/internal/cmd"
)

func main() {
	cmd.Execute()
}
