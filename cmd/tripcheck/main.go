package main

import (
	"log"

	"github.com/evanhutnik/tripcheck-service/internal/config"
	"github.com/evanhutnik/tripcheck-service/internal/tripcheck"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	s, err := tripcheck.New(cfg)
	if err != nil {
		log.Fatalf("Error creating service: %v", err)
	}
	defer s.Logger.Sync()

	if err := s.Start(); err != nil {
		s.Logger.Fatalf("Server stopped: %v", err)
	}
}
