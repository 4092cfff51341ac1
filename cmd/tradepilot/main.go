package main

import (
	"tradepilot/internal/cli"
)

func main() {
	cli.Execute()
}
