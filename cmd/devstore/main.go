package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatlink/internal/devstore"
	"chatlink/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server := devstore.NewServer()

	go func() {
		if err := server.Start(cfg.ServerPort); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()
	log.Printf("Dev store listening on :%s (environment: %s)", cfg.ServerPort, cfg.Environment)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
}
