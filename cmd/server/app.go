package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/animanga/backend/internal/catalogue"
	"github.com/ayush/animanga/backend/internal/config"
	"github.com/ayush/animanga/backend/internal/logging"
	"github.com/ayush/animanga/backend/internal/store"
)

// app holds the configuration and the connections a command opened.
type app struct {
	cfg *config.Config
	log *logrus.Logger

	closers []func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) credentials(ctx context.Context) (store.Credentials, error) {
	creds, err := store.OpenCredentials(ctx, a.cfg.DBDriver, a.cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, creds.Close)
	return creds, nil
}

func (a *app) redis(ctx context.Context) (*redis.Client, error) {
	rdb, err := store.NewRedisClient(ctx, store.RedisOptions{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { rdb.Close() })
	return rdb, nil
}

// catalogue connects MongoDB and MinIO. It returns nil when MONGO_URI is
// unset.
func (a *app) catalogue(ctx context.Context) (*catalogue.Service, error) {
	if a.cfg.MongoURI == "" {
		return nil, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	a.closers = append(a.closers, func() { client.Disconnect(context.Background()) })
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	shows := store.NewShowStore(client.Database(a.cfg.MongoDB))
	if err := shows.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	covers, err := store.NewMinioStore(ctx, store.MinioOptions{
		Endpoint:  a.cfg.MinioEndpoint,
		AccessKey: a.cfg.MinioAccessKey,
		SecretKey: a.cfg.MinioSecretKey,
		Bucket:    a.cfg.MinioBucket,
		UseSSL:    a.cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connect: %w", err)
	}
	return catalogue.NewService(shows, covers, a.log), nil
}
