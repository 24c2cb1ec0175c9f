package app

import (
	"context"
	"time"

	"go-ems/internal/config"
	"go-ems/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects every store the API needs and registers all routes.
// The returned cleanup closes the connections.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(), error) {
	logger := zap.L().Named("app")

	// 1. Setup Infrastructure
	mongoClient, mongoDB, err := connection.ConnectMongoWithRetry(cfg.MongoURI, cfg.MongoDBName, cfg.ConnectRetries)
	if err != nil {
		return nil, err
	}
	logger.Info("document store connection established", zap.String("database", cfg.MongoDBName))

	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
		cfg.ConnectRetries,
	)
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("credential database connection established")

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("redis connection established")

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
		_ = redisClient.Close()
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	// 2. Register Modules & Routes
	if err := registerModules(router, cfg, mongoClient, mongoDB, gormDB, redisClient, logger); err != nil {
		cleanup()
		return nil, err
	}

	return cleanup, nil
}
