package main

import "edge-status/internal/cli"

func main() {
	cli.Execute()
}
