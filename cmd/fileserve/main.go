package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/omnifileserve/internal/app/filehttp"
	"github.com/sir_venger/omnifileserve/internal/config"
	"github.com/sir_venger/omnifileserve/internal/logger"
	"github.com/sir_venger/omnifileserve/internal/storage"
	"github.com/sir_venger/omnifileserve/internal/usecase/filesvc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	config string
	addr   string
	root   string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:          "fileserve",
		Short:        "HTTP-сервис хранения файлов в локальном каталоге",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.config, "config", "c", "", "путь к YAML-конфигурации (по умолчанию CONFIG_PATH или ./config.yaml)")
	cmd.Flags().StringVar(&f.addr, "addr", "", "адрес прослушивания, перекрывает listen_addr")
	cmd.Flags().StringVar(&f.root, "root", "", "корневой каталог хранилища, перекрывает storage_root")

	return cmd
}

// loadConfig: файл -> ENV -> дефолты, затем флаги командной строки.
func loadConfig(f flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.config != "" {
		_ = godotenv.Load()
		cfg, err = config.LoadFile(f.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if f.addr != "" {
		cfg.ListenAddr = f.addr
	}
	if f.root != "" {
		cfg.StorageRoot = f.root
	}
	return cfg, nil
}

// serve поднимает HTTP-сервер и фоновый GC и корректно завершает их по сигналу.
func serve(parent context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	root, err := storage.NewRoot(cfg.StorageRoot)
	if err != nil {
		log.Error("storage root unavailable", zap.String("root", cfg.StorageRoot), zap.Error(err))
		return err
	}

	files := filesvc.New(filesvc.Deps{Root: root, Logger: log})
	handler := filehttp.New(files, root, log,
		filehttp.WithMaxUploadBytes(cfg.MaxUploadBytes),
		filehttp.WithGCTTL(cfg.GC.TTL),
	)

	stopGC := filehttp.StartGC(root, cfg.GC.TTL, cfg.GC.Interval, log)
	defer stopGC()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("root", root.Dir()),
			zap.Int64("max_upload_bytes", cfg.MaxUploadBytes),
			zap.Duration("gc_ttl", cfg.GC.TTL),
			zap.Duration("gc_interval", cfg.GC.Interval),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT или падении сервера.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("shutdown", zap.Error(err))
			return err
		}
		log.Info("stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server failed", zap.Error(err))
		return err
	}
	return nil
}
