package main

import (
	_ "time/tzdata" // Embedded zoneinfo for lottery.timezone.

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/jerneif/lotto-api/cmd/app"
)

func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
