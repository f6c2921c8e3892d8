// Package app wires configuration, stores, token managers and handlers into a running server.
package app

import (
	"fmt"

	"album-grid/internal/albums"
	"album-grid/internal/common/cache"
	"album-grid/internal/common/logging"
	"album-grid/internal/config"
	"album-grid/internal/crypto"
	"album-grid/internal/history"
	"album-grid/internal/oauth2"
	"album-grid/internal/redis"
	"album-grid/internal/streaming"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	RedisClient *redis.Client
	Store       cache.HealthStore
	Encryptor   *crypto.TokenEncryptor
	Provider    *oauth2.Provider
	Clients     *streaming.Factory
	Users       *oauth2.UserManager
	AppTokens   *oauth2.AppManager
	Albums      *albums.Service
	Logger      logging.Logger
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "app"}),
	}

	if err := app.initializeStore(); err != nil {
		return nil, err
	}

	if err := app.initializeEncryption(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.initializeTokens()

	app.Albums = albums.NewService(app.Store, history.NewLastFM(history.LastFMConfig{
		APIKey:  cfg.LastFMAPIKey,
		BaseURL: cfg.LastFMAPIURL,
	}), albums.Config{
		TopAlbumsTTL:         cfg.TopAlbumsTTLDuration(),
		TopAlbumsNegativeTTL: cfg.TopAlbumsNegativeTTLDuration(),
		LinkTTL:              cfg.AlbumLinkTTLDuration(),
		LinkNegativeTTL:      cfg.AlbumLinkNegativeTTLDuration(),
	})

	return app, nil
}

func (app *App) initializeEncryption() error {
	if app.Config.TokenEncryptionKey == "" {
		app.Logger.Info("Token encryption: Disabled")
		return nil
	}
	encryptor, err := crypto.NewTokenEncryptor(app.Config.TokenEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token encryption: %w", err)
	}
	app.Encryptor = encryptor
	app.Logger.Info("Token encryption: Enabled")
	return nil
}

func (app *App) initializeTokens() {
	cfg := app.Config

	app.Provider = oauth2.NewProvider(oauth2.ProviderConfig{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURL:  cfg.SpotifyRedirectURL,
		AuthURL:      cfg.SpotifyAuthURL,
		TokenURL:     cfg.SpotifyTokenURL,
		Timeout:      cfg.ProviderTimeoutDuration(),
	})

	streamingConfig := streaming.DefaultConfig()
	if cfg.SpotifyAPIURL != "" {
		streamingConfig.BaseURL = cfg.SpotifyAPIURL
	}
	streamingConfig.RateLimit = cfg.StreamingRateLimitValue()
	app.Clients = streaming.NewFactory(streamingConfig)

	app.Users = oauth2.NewUserManager(
		oauth2.NewUserTokenStore(app.Store, app.Encryptor),
		app.Provider,
		app.Clients,
	)

	var opts []oauth2.AppManagerOption
	if cfg.SpotifyAppTokenShared {
		opts = append(opts, oauth2.WithSharedStore(app.Store, oauth2.DefaultAppTokenKey))
	}
	app.AppTokens = oauth2.NewAppManager(app.Provider, app.Clients, opts...)
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Error closing Redis client", logging.Err(err))
		}
		app.RedisClient = nil
	}
}
