package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brownie44l1/flower-api/internal/config"
	"github.com/Brownie44l1/flower-api/internal/model"
	"github.com/Brownie44l1/flower-api/internal/server"
)

var version = "dev"

func main() {
	cfg, err := config.LoadServer(os.Args[1:], os.Getenv, version)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Loading model from: %s", cfg.ModelPath)

	modelServer, err := model.NewServer(model.Config{
		ModelPath:    cfg.ModelPath,
		MetadataPath: cfg.MetadataPath,
		LibraryPath:  cfg.LibraryPath,
		Sessions:     cfg.Sessions,
	})
	if err != nil {
		log.Fatalf("Failed to initialize model server: %v", err)
	}
	defer modelServer.Close()

	srv := server.New(cfg, modelServer)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	meta := modelServer.Metadata()
	log.Printf("Flower Classification API v%s", cfg.Version)
	log.Printf("Classes: %v", meta.Classes)
	log.Printf("Input: %dx%d %s", meta.ImageSize, meta.ImageSize, meta.TensorLayout())
	log.Println("Endpoints:")
	log.Println("  GET  /               - Health check")
	log.Println("  GET  /info           - Model information")
	log.Println("  POST /predict/       - Predict from image upload")
	log.Println("  POST /predict/tensor - Raw array prediction")
	log.Printf("Upload test: curl -X POST -F \"file=@flower.jpg;type=image/jpeg\" http://localhost:%d/predict/", cfg.Port)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			modelServer.Close()
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %v signal, shutting down...", sig)
		if err := srv.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}
}
