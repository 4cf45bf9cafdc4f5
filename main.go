package main

import (
	"log"

	"github.com/haguru/kakashi/config"
	"github.com/haguru/kakashi/internal/app"
)

func main() {
	// create and initialize the app
	app, err := app.NewApp(config.CONFIG_PATH, config.ENV_FILE)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	// serve until interrupted
	if err := app.Run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
