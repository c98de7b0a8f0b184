/*
Copyright © 2025 TaskFlow contributors
*/
package cmd

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/taskflowhq/taskflow/internal/server"
	"github.com/taskflowhq/taskflow/store"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TaskFlow API server",
	Long: `Start the HTTP API. When mongo.uri is configured and reachable the
document backend serves requests; otherwise every request is handled by the
in-memory store. The active backend is re-evaluated per request, so a
database that comes up later is picked up without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sel := store.NewSelector(connectMongo(ctx), store.NewMemoryStore())
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sel.Close(closeCtx)
	}()

	srv := server.New(cfg, sel)

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)
	log.Printf("taskflow listening on %s (backend: %s)", srv.Addr(), sel.Backend())

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	wg.Wait()
	log.Println("taskflow stopped")
	return nil
}

// connectMongo establishes the document backend when a URI is configured.
// Any failure is logged and the server falls back to the in-memory store;
// the selector keeps probing, so a database that appears later gets used.
func connectMongo(ctx context.Context) *store.MongoStore {
	cfg := GetConfig()
	if cfg.Mongo.URI == "" {
		log.Println("no mongo.uri configured; using in-memory store")
		return nil
	}

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(cfg.Mongo.ConnectTimeout()).
		SetSocketTimeout(cfg.Mongo.SocketTimeout())

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout())
	defer cancel()
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		log.Printf("mongo connect failed (%v); falling back to in-memory store", err)
		return nil
	}

	ms := store.NewMongoStore(client, cfg.Mongo.Database, cfg.Mongo.Collection)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Printf("mongo unreachable (%v); serving from in-memory store until it recovers", err)
		return ms
	}

	if err := ms.EnsureIndexes(ctx); err != nil {
		log.Printf("ensure indexes: %v", err)
	}
	log.Printf("connected to mongodb database %q", cfg.Mongo.Database)
	return ms
}
