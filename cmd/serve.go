package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address, overrides server.addr")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobgenius api", zap.String("version", version))

	store, err := buildStore(ctx, config.Storage, logger)
	if err != nil {
		logger.Fatal("building storage", zap.Error(err))
	}

	application, err := buildApplication(ctx, config, store, logger)
	if err != nil {
		store.Close()
		logger.Fatal("building service", zap.Error(err))
	}
	defer application.close()

	srv, err := server.New(config.Server, application.service, logger.Named("http"))
	if err != nil {
		logger.Fatal("building http server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server stopped", zap.Error(err))
		return
	}
	logger.Info("http server stopped")
}
