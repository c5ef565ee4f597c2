package main

import (
	"log"

	"samplemap/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("samplemap: %v", err)
	}
}
