package container

import (
	"fmt"
	"io"

	"sidecar/adapters/chart"
	"sidecar/adapters/tablestore"
	"sidecar/app"
	"sidecar/internal"
	"sidecar/internal/config"
	"sidecar/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Collaborators
	Store    ports.TableStore
	Renderer ports.Renderer

	// Services
	CDFService *app.CDFService
}

// New wires the filesystem store, the chart renderer and the CDF service.
// Logs go to logOut at the configured level.
func New(cfg *config.Config, logOut io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLoggerTo(logOut, internal.ParseLogLevel(cfg.LogLevel)),
	}
	c.Store = tablestore.New(c.Logger)
	c.Renderer = chart.NewRenderer(cfg.Plot, c.Logger)
	c.CDFService = app.NewCDFService(c.Store, c.Renderer, c.Logger, cfg)

	c.Logger.Debug("container initialized (num steps %d, normalization %s, output dir %s)",
		cfg.Analysis.NumSteps, cfg.Analysis.Normalization, cfg.Paths.OutputDir)
	return c, nil
}
