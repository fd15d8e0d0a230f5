package main

import (
	"context"
	"log"
	"net/http"

	"land-registry/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file; using process environment")
	}

	cfg := server.ConfigFromEnv()

	s, err := server.New(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("land registry API on %s", addr)
	log.Fatal(http.ListenAndServe(addr, s.Handler()))
}
