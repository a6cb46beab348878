package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ironsheep/docscan/internal/config"
	"github.com/ironsheep/docscan/internal/detection"
	"github.com/ironsheep/docscan/internal/httpapi"
	"github.com/ironsheep/docscan/internal/logging"
	"github.com/ironsheep/docscan/internal/ocr"
	"github.com/ironsheep/docscan/internal/scanner"
	"github.com/ironsheep/docscan/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	mode := "serve"
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("docscan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "serve", "mcp":
			mode = os.Args[1]
		default:
			fmt.Fprintf(os.Stderr, "docscan: unknown command %q (see docscan --help)\n", os.Args[1])
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "docscan: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr (stdout is for MCP protocol)
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docscan: %v\n", err)
		os.Exit(1)
	}
	log.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Str("mode", mode).
		Msg("starting docscan")

	opts := detection.DefaultOptions()
	opts.MaxDimension = cfg.MaxDimension
	sc := scanner.New(detection.New(opts, log), ocr.New(cfg.OCRLanguage), cfg.JPEGQuality, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "mcp":
		err = server.New(sc, Version, log).Run(ctx)
	default:
		err = serveHTTP(ctx, cfg, sc, log)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", mode).Msg("server error")
	}
}

// serveHTTP runs the HTTP API until ctx is cancelled, then drains in-flight
// requests.
func serveHTTP(ctx context.Context, cfg *config.Config, sc *scanner.Scanner, log zerolog.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(sc, httpapi.Options{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		StaticDir:      cfg.StaticDir,
		CORSOrigin:     cfg.CORSOrigin,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printHelp() {
	fmt.Println("docscan - find and flatten documents in photos")
	fmt.Println()
	fmt.Println("Usage: docscan [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve            Run the HTTP API (default)")
	fmt.Println("  mcp              Serve MCP over stdin/stdout")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  DOCSCAN_ADDR=:5000            HTTP listen address")
	fmt.Println("  DOCSCAN_LOG_LEVEL=info        debug, info, warn, error")
	fmt.Println("  DOCSCAN_LOG_FORMAT=console    console or json")
	fmt.Println("  DOCSCAN_MAX_UPLOAD_MB=50      request body limit")
	fmt.Println("  DOCSCAN_MAX_DIMENSION=1600    detector input cap, 0 disables")
	fmt.Println("  DOCSCAN_JPEG_QUALITY=90       quality of returned JPEGs")
	fmt.Println("  DOCSCAN_STATIC_DIR=           directory with index.html and intro.html")
	fmt.Println("  DOCSCAN_CORS_ORIGIN=*         allowed browser origin")
	fmt.Println("  DOCSCAN_OCR_LANGUAGE=eng      Tesseract language, e.g. deu+eng")
	fmt.Println("  DOCSCAN_READ_TIMEOUT=30s      HTTP read timeout")
	fmt.Println("  DOCSCAN_WRITE_TIMEOUT=60s     HTTP write timeout")
}
