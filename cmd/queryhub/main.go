package main

import "github.com/queryhub-labs/queryhub/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
