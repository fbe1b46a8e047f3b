package main

import (
	"github.com/signalserve/skv/cmd"
)

func main() {
	cmd.Execute()
}
