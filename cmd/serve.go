package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazemkhaled/raggate/internal/auth"
	"github.com/hazemkhaled/raggate/internal/chat"
	"github.com/hazemkhaled/raggate/internal/config"
	"github.com/hazemkhaled/raggate/internal/db"
	"github.com/hazemkhaled/raggate/internal/documents"
	"github.com/hazemkhaled/raggate/internal/hub"
	"github.com/hazemkhaled/raggate/internal/inference"
	"github.com/hazemkhaled/raggate/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the raggate gateway server",
	Long:  `Starts the gateway with the chat, document upload, auth, and websocket push endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if servePort != 0 {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err := newLogger()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer logger.Sync()

		// Open database.
		dbPath := filepath.Join(cfg.DataDir, "raggate.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		// Wire components.
		authority := auth.NewTokenAuthority(cfg.JWTSecret, cfg.TokenTTL)
		userStore := auth.NewStore(database)
		turnStore := chat.NewStore(database)
		pushHub := hub.New(logger.Named("hub"))
		client := inference.NewClient(cfg.InferenceBase, cfg.QueryTimeout, cfg.IngestTimeout)
		orchestrator := chat.NewOrchestrator(client, turnStore, pushHub, cfg.QueryTimeout, logger.Named("chat"))
		pipeline := documents.NewPipeline(client, cfg.UploadDir, cfg.MaxUploadBytes, cfg.IngestTimeout, logger.Named("documents"))

		srv := server.New(server.Config{
			Port:       cfg.Port,
			CORSOrigin: cfg.CORSOrigin,
		}, logger.Named("http"))

		r := srv.Router()
		auth.RegisterRoutes(r, userStore, authority, logger.Named("auth"))
		chat.RegisterRoutes(r, orchestrator, authority)
		documents.RegisterRoutes(r, pipeline, authority)
		hub.RegisterRoutes(r, pushHub)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			logger.Info("shutting down")
			srv.Shutdown(context.Background())
		}()

		logger.Info("raggate starting",
			zap.String("version", Version),
			zap.Int("port", cfg.Port),
			zap.String("inference", cfg.InferenceBase),
			zap.String("database", dbPath))

		return srv.Start()
	},
}

// newLogger builds the process logger; verbose switches to the development
// encoder with debug level.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override the configured port")
	rootCmd.AddCommand(serveCmd)
}
