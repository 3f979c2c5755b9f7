package main

import (
	"github.com/tunehive/partyhub/internal/cli"
)

func main() {
	cli.Execute()
}
