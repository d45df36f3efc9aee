package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/flower-api/internal/chart"
	"github.com/Brownie44l1/flower-api/internal/client"
	"github.com/Brownie44l1/flower-api/internal/config"
	"github.com/Brownie44l1/flower-api/internal/flower"
	"github.com/Brownie44l1/flower-api/internal/imaging"
	"github.com/Brownie44l1/flower-api/internal/server"
	"github.com/Brownie44l1/flower-api/internal/webui"
	"github.com/gorilla/mux"
	webview "github.com/webview/webview_go"
)

var version = "dev"

func main() {
	cfg, err := config.LoadClient(os.Args[1:], os.Getenv, version)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	lang := flower.ParseLang(cfg.Lang)
	apiClient := client.New(cfg.APIURL, cfg.Timeout)

	renderer, err := chart.NewRenderer(chart.DefaultOptions())
	if err != nil {
		log.Fatalf("Failed to create chart renderer: %v", err)
	}
	ui := webui.NewHandler(apiClient, renderer, lang)

	if cfg.ImagePath != "" {
		if err := classifyFile(ui, cfg.ImagePath); err != nil {
			log.Fatal(err)
		}
		return
	}

	router := mux.NewRouter()
	ui.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:      server.LogRequests(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Timeout + 15*time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	log.Printf("Flower classifier UI v%s on %s (API: %s)", cfg.Version, serverURL, cfg.APIURL)
	waitForServer(serverURL, 10*time.Second)

	if cfg.Headless {
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Server error: %v", err)
			}
		case sig := <-stop:
			log.Printf("Received %v signal, shutting down...", sig)
		}
	} else {
		w := webview.New(false)
		defer w.Destroy()

		w.SetTitle("Flower Classification")
		w.SetSize(900, 900, webview.HintNone)
		w.Navigate(serverURL)

		go func() {
			select {
			case err := <-errCh:
				if err != nil {
					log.Printf("Server error: %v", err)
				}
			case sig := <-stop:
				log.Printf("Received %v signal, shutting down...", sig)
			}
			w.Dispatch(w.Terminate)
		}()

		// Run blocks until the window is closed
		w.Run()
		log.Printf("Window closed, shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// classifyFile runs a single classification and prints the result.
func classifyFile(ui *webui.Handler, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	img, _, err := imaging.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	view, err := ui.Classify(context.Background(), img)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("error contacting API (status %d):\n%s", apiErr.StatusCode, apiErr.Body)
		}
		return fmt.Errorf("an error occurred: %w", err)
	}

	fmt.Printf("Result: %s\n", view.DisplayLabel)
	for _, bar := range view.Bars {
		fmt.Printf("  %-16s %.2f\n", bar.Label, bar.Value)
	}
	return nil
}

// waitForServer polls until the server is accepting connections
func waitForServer(url string, timeout time.Duration) {
	addr := url[len("http://"):]
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	log.Printf("Warning: server may not be ready at %s", url)
}
