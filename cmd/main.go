package main

import (
	"log"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/eventtide/ticketcore/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using process environment")
	}

	if err := server.Start(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
