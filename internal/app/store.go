package app

import (
	"album-grid/internal/common/cache"
	"album-grid/internal/common/logging"
	"album-grid/internal/redis"
)

// initializeStore connects Redis when configured and falls back to the
// in-process store otherwise. A configured but unreachable Redis is an error.
func (app *App) initializeStore() error {
	storeConfig := cache.DefaultConfig()

	if !app.Config.UseRedis() {
		storeConfig.Type = cache.TypeLocal
		store, err := cache.New(storeConfig)
		if err != nil {
			return err
		}
		app.Store = store
		app.Logger.Info("Store: In-process (Redis not configured)")
		return nil
	}

	redisClient, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       app.Config.RedisDBNumber(),
		PoolSize: app.Config.RedisPoolSizeNumber(),
	})
	if err != nil {
		return err
	}
	app.RedisClient = redisClient

	storeConfig.Type = cache.TypeRedis
	storeConfig.RedisClient = redisClient
	store, err := cache.New(storeConfig)
	if err != nil {
		redisClient.Close()
		return err
	}
	app.Store = store
	app.Logger.Info("Store: Redis", logging.Field{Key: "address", Value: app.Config.RedisAddress})
	return nil
}
