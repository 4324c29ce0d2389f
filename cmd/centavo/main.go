package main

import (
	"log"

	"github.com/joho/godotenv"

	"centavo/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, relying on environment")
	}
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
