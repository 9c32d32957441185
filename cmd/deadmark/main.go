package main

import (
	"fmt"
	"log"
	"os"

	"github.com/MrSnakeDoc/deadmark/internal/app"
	"github.com/MrSnakeDoc/deadmark/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version.Get().String())
		return
	}

	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ deadmark failed to start: %v", err)
	}
}
