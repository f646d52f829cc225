package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatrelay/config"
	"chatrelay/handlers"
	"chatrelay/repository"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "chatrelay",
	Short:         "Real-time group and direct messaging relay",
	Long:          "chatrelay accepts websocket clients, registers unique identities and routes broadcast and private messages between them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	godotenv.Load()
	cfg = config.Load()

	rootCmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "address to bind")
	rootCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "port to bind")
	rootCmd.Flags().BoolVar(&cfg.SSL, "ssl", false, "serve TLS (wss://)")
	rootCmd.Flags().StringVar(&cfg.CertFile, "cert", "", "TLS certificate file")
	rootCmd.Flags().StringVar(&cfg.KeyFile, "key", "", "TLS private key file")
}

func run() error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	var archive handlers.MessageArchive
	if cfg.ArchiveDSN != "" {
		pg, err := repository.Connect(cfg.ArchiveDSN)
		if err != nil {
			return fmt.Errorf("connect message archive: %w", err)
		}
		defer pg.Close()
		archive = pg
		logger.Info("message archive enabled")
	}

	relay := handlers.NewRelay(handlers.NewRegistry(), archive, logger)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handlers.NewRouter(relay),
	}

	scheme := "ws"
	if cfg.SSL {
		scheme = "wss"
		// Load the pair up front so a bad cert fails the start, not the
		// first handshake.
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running",
			zap.String("addr", fmt.Sprintf("%s://%s/ws", scheme, cfg.Addr())))
		if cfg.SSL {
			errCh <- server.ListenAndServeTLS("", "")
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
