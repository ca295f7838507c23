// Package main provides the versectl command line tool.
package main

import "github.com/maauso/versevideo/internal/cli"

func main() {
	cli.Execute()
}
