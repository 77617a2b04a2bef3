package main

import (
	"fxcache/internal/app"

	"github.com/sirupsen/logrus"
)

// @title fxcache API
// @version 1.0
// @description Exchange-rate snapshot cache with single-flight refresh and persisted history.
// @BasePath /api/v1
func main() {
	if err := app.Run(); err != nil {
		logrus.WithError(err).Fatal("Application terminated")
	}
}
