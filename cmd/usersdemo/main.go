// Command usersdemo serves a small users list backed by one MongoDB connection
// opened at startup.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solorad/blog-crud/pkg"
	"github.com/solorad/blog-crud/pkg/config"
	"github.com/solorad/blog-crud/pkg/log"
	"github.com/solorad/blog-crud/pkg/storage"
	"github.com/solorad/blog-crud/pkg/storage/memory"
	"github.com/solorad/blog-crud/pkg/users"
	"github.com/solorad/blog-crud/pkg/web"
)

var (
	configPath string
	listen     string
	mongoURI   string
	storeKind  string
)

func main() {
	_ = flag.Set("logtostderr", "true")

	rootCmd := &cobra.Command{
		Use:          "usersdemo",
		Short:        "Users demo server",
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return flag.CommandLine.Parse(nil)
		},
		RunE: run,
	}
	rootCmd.Flags().AddGoFlagSet(flag.CommandLine)
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default "+config.DefaultListen+")")
	rootCmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI (default "+config.DefaultMongoURI+")")
	rootCmd.Flags().StringVar(&storeKind, "store", "", "document store: mongo or memory")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	log.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, config.Users())
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if mongoURI != "" {
		cfg.Mongo.URI = mongoURI
	}
	if storeKind != "" {
		cfg.Store = storeKind
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	var sessions pkg.SessionManager
	if cfg.Store == config.StoreMemory {
		sessions = memory.New()
	} else {
		client, err := storage.Connect(ctx, cfg.Mongo)
		if err != nil {
			log.Fatalf("Database connection error: %v", err)
		}
		log.Infof("Connected to the database")
		shared := storage.NewShared(client)
		defer func() {
			if err := shared.Disconnect(context.WithoutCancel(ctx)); err != nil {
				log.Errorf("Error disconnecting from the database: %v", err)
			}
		}()
		sessions = shared
	}

	h, err := users.NewHandlers(sessions, cfg.Mongo.OpTimeout)
	if err != nil {
		return err
	}
	router := web.NewRouter()
	h.Register(router)

	log.Infof("Server running on %s", cfg.Listen)
	return web.NewServer(cfg.Listen, router, nil).Start(ctx)
}
