// Package main provides the coffer CLI.
package main

import "github.com/mesh-intelligence/coffer/internal/cli"

func main() {
	cli.Execute()
}
