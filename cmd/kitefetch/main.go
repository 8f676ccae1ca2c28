package main

import (
	"github.com/assetnote/kitefetch/cmd/kitefetch/cmd"
)

func main() {
	cmd.Execute()
}
