package config

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cast"
)

// ServerConfig holds the inference service configuration
type ServerConfig struct {
	Port         int
	ModelPath    string
	MetadataPath string
	LibraryPath  string
	Sessions     int
	Version      string
}

// ClientConfig holds the client application configuration
type ClientConfig struct {
	Port      int
	APIURL    string
	Lang      string
	Timeout   time.Duration
	Headless  bool
	ImagePath string
	Version   string
}

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(string) string

const (
	DefaultServerPort   = 8080
	DefaultClientPort   = 8501
	DefaultModelPath    = "models/flower_model.onnx"
	DefaultMetadataPath = "models/flower_model.json"
	DefaultAPIURL       = "http://localhost:8080/predict/"
	DefaultTimeout      = 30 * time.Second
)

// LoadServer parses command-line flags. Environment variables provide the
// defaults that flags override.
func LoadServer(args []string, getenv Getenv, version string) (ServerConfig, error) {
	port, err := envInt(getenv, "PORT", DefaultServerPort)
	if err != nil {
		return ServerConfig{}, err
	}
	sessions, err := envInt(getenv, "SESSIONS", defaultSessions())
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{Version: version}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", port, "HTTP server port")
	fs.StringVar(&cfg.ModelPath, "model", envString(getenv, "MODEL_PATH", DefaultModelPath), "ONNX model file")
	fs.StringVar(&cfg.MetadataPath, "metadata", envString(getenv, "METADATA_PATH", DefaultMetadataPath), "Model metadata JSON file, empty for built-in defaults")
	fs.StringVar(&cfg.LibraryPath, "onnxruntime", envString(getenv, "ONNXRUNTIME_LIB", ""), "Path to the onnxruntime shared library")
	fs.IntVar(&cfg.Sessions, "sessions", sessions, "Number of concurrent inference sessions")
	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return ServerConfig{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Sessions < 1 {
		return ServerConfig{}, fmt.Errorf("sessions must be at least 1, got %d", cfg.Sessions)
	}

	return cfg, nil
}

// LoadClient parses command-line flags for the client application.
func LoadClient(args []string, getenv Getenv, version string) (ClientConfig, error) {
	port, err := envInt(getenv, "PORT", DefaultClientPort)
	if err != nil {
		return ClientConfig{}, err
	}
	timeout := DefaultTimeout
	if v := getenv("REQUEST_TIMEOUT"); v != "" {
		timeout, err = cast.ToDurationE(v)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
	}
	headless, err := cast.ToBoolE(envString(getenv, "HEADLESS", "false"))
	if err != nil {
		return ClientConfig{}, fmt.Errorf("invalid HEADLESS: %w", err)
	}

	cfg := ClientConfig{Version: version}

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", port, "HTTP port for the web UI")
	fs.StringVar(&cfg.APIURL, "api", envString(getenv, "API_URL", DefaultAPIURL), "URL of the prediction endpoint")
	fs.StringVar(&cfg.Lang, "lang", envString(getenv, "LANG_UI", "ru"), "Display language for class labels (ru, en)")
	fs.DurationVar(&cfg.Timeout, "timeout", timeout, "Timeout for requests to the API")
	fs.BoolVar(&cfg.Headless, "headless", headless, "Run in headless mode (no GUI window)")
	fs.StringVar(&cfg.ImagePath, "image", "", "Classify this image file, print the result and exit")
	if err := fs.Parse(args); err != nil {
		return ClientConfig{}, err
	}

	if cfg.APIURL == "" {
		return ClientConfig{}, fmt.Errorf("api url is required")
	}

	return cfg, nil
}

func envString(getenv Getenv, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(getenv Getenv, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

// defaultSessions follows the CPU count, leaving headroom for the HTTP
// server goroutines.
func defaultSessions() int {
	n := (runtime.NumCPU() * 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}
