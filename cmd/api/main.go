package main

import (
	"context"
	"log"

	"docproc-backend/internal/bootstrap"
	"docproc-backend/internal/shared/config"
	"docproc-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{WithQueue: true})
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	r := server.NewRouter(app)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
