package main

import (
	"os"

	"github.com/AgencyDesk/AgencyDesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
