package main

import (
	"context"
	"time"

	mongomigration "gymcore/internal/migrations/mongo"
	"gymcore/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg.Log.Info("Starting Mongo migration job")
	if err := mongomigration.RunMigration(ctx, cfg.Client.Mongo.Client, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
