// Package main is the entry point for the dataclean CLI binary.
package main

import (
	"os"

	cli "github.com/karthik2365/data-cleaning/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
