package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	host := flag.String("host", "", "Listen address (overrides HOST)")
	profile := flag.String("profile", "", "Editor profile file, .yaml or .toml (overrides EMBED_PROFILE)")
	hostWindow := flag.String("host-window", "", "Host window handle, e.g. 0x1a2b (overrides EMBED_HOST_HANDLE)")
	flag.Parse()

	if *profile != "" {
		os.Setenv("EMBED_PROFILE", *profile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *hostWindow != "" {
		cfg.Embed.HostHandle = *hostWindow
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	// Always detach so the editor is not left running without a host.
	if err := srv.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
		os.Exit(1)
	}
}
