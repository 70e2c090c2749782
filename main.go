package main

import (
	"github.com/covgis/meters/cmd"
	"github.com/covgis/meters/internal/logging"
	"github.com/covgis/meters/internal/status"
)

func main() {
	defer logging.RecoverPanic("main", func() {
		status.Error("Application terminated due to unhandled panic")
	})

	cmd.Execute()
}
