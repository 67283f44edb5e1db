package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/solorad/blog-crud/pkg"
	gw "github.com/solorad/blog-crud/pkg/api/v1"
	"github.com/solorad/blog-crud/pkg/blog"
	"github.com/solorad/blog-crud/pkg/config"
	"github.com/solorad/blog-crud/pkg/log"
	"github.com/solorad/blog-crud/pkg/storage"
	"github.com/solorad/blog-crud/pkg/storage/memory"
	"github.com/solorad/blog-crud/pkg/web"
)

var version = "dev"

// command-line options, applied on top of the config file
var (
	configPath string
	listen     string
	mongoURI   string
	storeKind  string
)

func main() {
	// console logging like a dev server; -logtostderr=false restores glog files
	_ = flag.Set("logtostderr", "true")

	rootCmd := &cobra.Command{
		Use:          "blog",
		Short:        "Blog CRUD server",
		Long:         `Serves the blog pages, the BlogService gRPC API and its REST gateway on one port.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// glog reads its settings from the standard flag set
			return flag.CommandLine.Parse(nil)
		},
		RunE: runServe,
	}
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI (default "+config.DefaultMongoURI+")")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "document store: mongo or memory")
	rootCmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default "+config.DefaultListen+")")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Bulk insert blogs from a JSON array of objects",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("blog %s\n", version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	log.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath, config.Blog())
	if err != nil {
		return cfg, err
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
	return cfg, cfg.Validate()
}

func newSessions(cfg config.Config) pkg.SessionManager {
	if cfg.Store == config.StoreMemory {
		log.Warningf("Using the in-memory store, documents are lost on exit")
		return memory.New()
	}
	return storage.NewDialer(cfg.Mongo)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	sessions := newSessions(cfg)

	handlers, err := blog.NewHandlers(sessions, cfg.Mongo.OpTimeout)
	if err != nil {
		return err
	}
	grpcServer := web.NewGRPCServer(blog.NewBlogServiceServer(sessions, cfg.Mongo.OpTimeout))

	// Register gRPC server endpoint
	// Note: the gateway dials this same server, which must be reachable on cfg.Listen
	mux := runtime.NewServeMux()
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	endpoint := web.Endpoint(cfg.Listen)
	if err := gw.RegisterBlogServiceHandlerFromEndpoint(ctx, mux, endpoint, opts); err != nil {
		return err
	}
	log.Infof("REST gateway proxies to gRPC endpoint %s", endpoint)

	router := web.NewRouter()
	handlers.Register(router)
	router.Handle("/api/v1/*", mux)

	log.Infof("App running on %s", cfg.Listen)
	return web.NewServer(cfg.Listen, router, grpcServer).Start(ctx)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store != config.StoreMongo {
		return errors.New("import needs the mongo store")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	docs, err := blog.DecodeImport(data)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	client, err := storage.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.WithoutCancel(ctx)); err != nil {
			log.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	if failed := client.InsertMany(ctx, docs); failed > 0 {
		return fmt.Errorf("import: %d batches failed", failed)
	}
	log.Infof("Imported %d blogs from %s", len(docs), args[0])
	return nil
}
