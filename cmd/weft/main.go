// Package main provides the weft CLI binary.
package main

import "github.com/weftdb/weft/internal/cli"

func main() {
	cli.Execute()
}
