package main

import (
	"github.com/dipin13k/code-snippets/cmd"
)

func main() {
	cmd.Execute()
}
