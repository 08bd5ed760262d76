package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/invoicebot/invoicebot/internal/api"
	"github.com/invoicebot/invoicebot/internal/gmailsource"
	"github.com/invoicebot/invoicebot/internal/invoice"
	"github.com/invoicebot/invoicebot/internal/textextract"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoicebot")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "invoicebot.db", "Database file path")
		exportsPath = fs.StringLong("exports", "./exports", "Export artifacts directory path")
		credentials = fs.StringLong("credentials", "google-credentials.json", "Google OAuth2 credentials file path")
		tokenPath   = fs.StringLong("token", "token.json", "Stored OAuth2 token file path")
		connect     = fs.BoolLong("connect", "Run the Gmail consent flow and exit")
		ocrBackend  = fs.StringLong("ocr", "gemini", "OCR backend: 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		concurrency = fs.IntLong("concurrency", invoice.DefaultConcurrency, "Attachment processing fan-out limit")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICEBOT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	ctx := context.Background()

	if *connect {
		slog.Info("Starting Gmail consent flow...")
		if err := gmailsource.Connect(ctx, *credentials, *tokenPath, openBrowser); err != nil {
			slog.Error("Consent flow failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Gmail connected, token stored", "path", *tokenPath)
		return
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := invoice.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize OCR backend
	var ocr interface {
		invoice.TextExtractor
		Close() error
	}
	switch *ocrBackend {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini OCR...", "model", *geminiModel)
		ocr, err = textextract.NewGeminiOCR(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama OCR...", "url", *ollamaURL, "model", *ollamaModel)
		ocr, err = textextract.NewOllamaOCR(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid OCR backend", "type", *ocrBackend, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer ocr.Close()

	// Initialize Gmail client
	slog.Info("Connecting to Gmail...")
	gmailClient, err := gmailsource.NewClient(ctx, *credentials, *tokenPath)
	if err != nil {
		slog.Error("Failed to connect to Gmail. Run with --connect to authorize", "error", err)
		os.Exit(1)
	}

	// Initialize export storage
	slog.Info("Initializing export storage...")
	store, err := invoice.NewLocalStorage(*exportsPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline
	processor := invoice.NewProcessor(textextract.NewPDFExtractor(ocr), ocr)
	service := invoice.NewService(db, gmailClient, gmailClient, processor, *concurrency)

	// Initialize server
	basicAuth := api.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := api.NewServer(service, store, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// openBrowser opens the consent URL in the default browser, falling
// back to printing it for the user to open manually.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		fmt.Printf("Open this URL in your browser to authorize:\n%s\n", url)
	}
	return nil
}
