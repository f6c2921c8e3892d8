package app

import (
	"context"

	"album-grid/internal/server"
)

// RunServer builds the router and starts listening
func (app *App) RunServer() (*server.Server, error) {
	srv := server.New(app.SetupRoutes(), app.Config.Port, app.Config.TLSCertFile, app.Config.TLSKeyFile)
	if err := srv.Start(); err != nil {
		return nil, err
	}
	return srv, nil
}

// ShutdownServer stops the listener and then releases application resources
func (app *App) ShutdownServer(ctx context.Context, srv *server.Server) error {
	err := srv.Shutdown(ctx)
	app.Cleanup()
	return err
}
