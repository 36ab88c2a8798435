package main

import (
	"log"

	"github.com/patric-chuzhbe/notesvc/internal/app"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		log.Fatalf("application initialization error: %v", err)
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		log.Fatalf("application run error: %v", err)
	}
}
