package main

import (
	"github.com/BioHazard786/screenrelay/cmd"
	"github.com/BioHazard786/screenrelay/internal/logging"
)

func main() {
	logging.Init()
	cmd.Execute()
}
