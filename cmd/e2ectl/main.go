package main

import "github.com/bengeek06/waterfall-e2e/internal/cli"

func main() {
	cli.Execute()
}
