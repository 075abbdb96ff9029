package main

import (
	"log"
	"os"

	// Blank imports register the functions
	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	_ "github.com/ripixel/workout-sync/functions/healthimport"
	_ "github.com/ripixel/workout-sync/functions/stravawebhook"
)

func main() {
	port := "8080"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	if err := funcframework.Start(port); err != nil {
		log.Fatalf("funcframework.Start: %v\n", err)
	}
}
