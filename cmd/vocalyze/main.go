package main

import (
	"github.com/vocalyze/client-go/internal/cli"
)

func main() {
	cli.Execute()
}
