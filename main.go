package main

import (
	"log"

	"whiteboard/internal/app"
	"whiteboard/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := app.ServeMCP(cfg); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
