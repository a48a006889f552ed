package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/agrogpt/advisor/internal/config"
	"github.com/agrogpt/advisor/internal/server"
)

var version = "dev"

func main() {
	// Parse command-line flags
	port := flag.Int("port", 0, "HTTP server port")
	dataDir := flag.String("data-dir", "", "Directory containing disease config, translations, and price history")
	modelsDir := flag.String("models-dir", "", "Directory containing model artifacts")
	defaultLang := flag.String("default-language", "", "Default response language")
	broadcastSpec := flag.String("broadcast-spec", "", "Cron expression for scheduled advisory broadcasts")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Agro Advisor v%s\n", version)
		os.Exit(0)
	}

	// Flags take priority, then environment, then defaults
	cfg := config.Config{
		Port:            *port,
		DataDir:         *dataDir,
		ModelsDir:       *modelsDir,
		DefaultLanguage: *defaultLang,
		BroadcastSpec:   *broadcastSpec,
		Version:         version,
	}.FromEnv().WithDefaults()

	// Find an available port (try up to 10 ports starting from the requested one)
	availablePort, err := findAvailablePort(cfg.Port, 10)
	if err != nil {
		log.Fatalf("Failed to find available port: %v", err)
	}
	if availablePort != cfg.Port {
		log.Printf("Port %d in use, using port %d instead", cfg.Port, availablePort)
	}
	cfg.Port = availablePort

	log.Printf("Agro Advisor v%s starting on port %d", version, cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Models directory: %s", cfg.ModelsDir)

	// A missing classifier artifact aborts startup here; per-request
	// errors never do.
	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %v signal, shutting down...", sig)
		if err := srv.Stop(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}
