package main

import "github.com/parleyhq/parley/internal/cli"

func main() {
	cli.Execute()
}
