package main

import (
	"os"
	"time"

	"github.com/poisonlab/poisonlab/cmd"
)

func main() {
	setLocalTimezone()

	cmd.Execute()
}

func setLocalTimezone() {
	if tz := os.Getenv("TZ"); tz != "" {
		var err error

		time.Local, err = time.LoadLocation(tz)
		if err != nil {
			time.Local = time.UTC
		}
	}
}
