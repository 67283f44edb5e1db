package storage

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/solorad/blog-crud/pkg/config"
	"github.com/solorad/blog-crud/pkg/log"
)

const (
	bulkSize    = 500
	bulkWorkers = 4
	pingTimeout = 2 * time.Second
	bulkTimeout = 1 * time.Minute
)

// MongoClient is a connected client bound to one database
type MongoClient struct {
	Client *mongo.Client
	cfg    config.Mongo
}

// Connect opens a client for cfg and pings the primary
func Connect(ctx context.Context, cfg config.Mongo) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	journal := true
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetWriteConcern(&writeconcern.WriteConcern{W: 1, Journal: &journal}).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect %s: %w", cfg.URI, err)
	}
	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongo ping %s: %w", cfg.URI, err)
	}
	return &MongoClient{Client: client, cfg: cfg}, nil
}

// Disconnect closes the underlying client
func (m *MongoClient) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// GetCollection returns a collection of the configured database, created by the server on first write
func (m *MongoClient) GetCollection(collectionName string) *mongo.Collection {
	return m.Client.Database(m.cfg.Database).Collection(collectionName)
}

// BulkWrite writes models in batches of bulkSize across a small worker pool.
// It returns the number of batches that failed.
func (m *MongoClient) BulkWrite(ctx context.Context, writeModels []mongo.WriteModel, collection *mongo.Collection) int {
	if len(writeModels) == 0 {
		return 0
	}
	start := time.Now()
	defer func() {
		log.TimeTrack(start, "BulkWrite to "+collection.Name())
	}()
	batches := (len(writeModels)-1)/bulkSize + 1
	jobs := make(chan []mongo.WriteModel, batches)
	results := make(chan error, batches)
	for i := 0; i < bulkWorkers; i++ {
		go startBulkWorker(ctx, jobs, results, collection)
	}
	for i := 0; i < batches; i++ {
		from := bulkSize * i
		to := bulkSize * (i + 1)
		if to > len(writeModels) {
			to = len(writeModels)
		}
		jobs <- writeModels[from:to]
	}
	close(jobs)
	failed := 0
	for i := 0; i < batches; i++ {
		if err := <-results; err != nil {
			failed++
		}
	}
	close(results)
	debug.FreeOSMemory()
	return failed
}

func startBulkWorker(ctx context.Context, jobs chan []mongo.WriteModel, results chan error, collection *mongo.Collection) {
	for job := range jobs {
		results <- writeBulk(ctx, collection, job)
	}
}

func writeBulk(ctx context.Context, collection *mongo.Collection, writeModels []mongo.WriteModel) error {
	ctx, cancel := context.WithTimeout(ctx, bulkTimeout)
	defer cancel()
	_, err := collection.BulkWrite(ctx, writeModels)
	if err != nil {
		log.Errorf("error occurred on bulk write in %s: %v", collection.Name(), err)
	}
	return err
}
