package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/survey-scan/internal/audio"
	"github.com/ziadkadry99/survey-scan/internal/config"
	"github.com/ziadkadry99/survey-scan/internal/db"
	"github.com/ziadkadry99/survey-scan/internal/history"
	"github.com/ziadkadry99/survey-scan/internal/jobs"
	"github.com/ziadkadry99/survey-scan/internal/ocr"
	"github.com/ziadkadry99/survey-scan/internal/push"
	"github.com/ziadkadry99/survey-scan/internal/reports"
	"github.com/ziadkadry99/survey-scan/internal/server"
	"github.com/ziadkadry99/survey-scan/internal/storage"
)

// userDBName is the main application's MongoDB database, which owns
// the user accounts referenced by processing history.
const userDBName = "sw2p2go_db"

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the survey processing HTTP server",
	Long:  `Starts the survscan server with image and audio processing endpoints, job tracking, history, and reports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort > 0 {
			cfg.Port = serverPort
		}

		log, err := serverLogger()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		runner, extractor, provider, err := buildRunner(cfg, log)
		if err != nil {
			return err
		}

		// Open database.
		dbPath := filepath.Join(cfg.DataDir, "survscan.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		histStore := history.NewStore(database)

		// Optional collaborators: each degrades to nil when not
		// configured or unreachable.
		startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		jobStore := connectJobs(startCtx, cfg, log)
		ocrUploader, audioUploader := connectStorage(startCtx, cfg, log)
		users := connectUsers(startCtx, cfg, log)
		notifier := push.New(cfg.FCMServerKey, log)

		// Create and start server.
		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: true,
		}, log)

		r := srv.Router()
		ocr.NewHandler(runner, extractor, ocrUploader, histStore, jobStore, notifier, log).RegisterRoutes(r)
		audio.NewHandler(runner, audioUploader, histStore, jobStore, notifier, cfg.MaxAudioMB, log).RegisterRoutes(r)
		history.RegisterRoutes(r, histStore)
		reports.RegisterRoutes(r, reports.NewService(histStore, users, provider, cfg.Model, log))
		if jobStore != nil {
			jobs.RegisterRoutes(r, jobStore, log)
		}

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "survscan server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Survey service: %s\n", cfg.EncuestasAPIURL)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)

		return srv.Start()
	},
}

// connectJobs wires the Redis-backed job store. Without a reachable
// Redis the async endpoints answer 503 instead of failing startup.
func connectJobs(ctx context.Context, cfg *config.Config, log *zap.Logger) *jobs.Store {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, background jobs disabled",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return nil
	}
	return jobs.NewStore(rdb, time.Hour)
}

// connectStorage wires the object store used to archive uploads.
func connectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (ocr.Uploader, audio.Uploader) {
	if cfg.Storage.Endpoint == "" {
		return nil, nil
	}
	up, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Warn("object storage unavailable, uploads will not be archived",
			zap.String("endpoint", cfg.Storage.Endpoint), zap.Error(err))
		return nil, nil
	}
	return up, up
}

// connectUsers wires the MongoDB user directory used by reports.
func connectUsers(ctx context.Context, cfg *config.Config, log *zap.Logger) reports.UserDirectory {
	if cfg.MongoURL == "" {
		return nil
	}
	dir, err := reports.NewMongoDirectory(ctx, cfg.MongoURL, userDBName)
	if err != nil {
		log.Warn("mongodb unreachable, report names disabled", zap.Error(err))
		return nil
	}
	return dir
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
