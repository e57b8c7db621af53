package main

import "github.com/ogulcanaydogan/binwatch/internal/cli"

func main() {
	cli.Execute()
}
