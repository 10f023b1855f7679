// Package internal wires the application together: database, routes and
// background jobs.
package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/jobs"
)

// Application wraps cartridge.Application with inkwell's DB manager.
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager
}

// NewApp creates an application with the default config.
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates an application with the provided config.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	jobsManager, err := jobs.NewJobs(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:            cfg,
		Logger:            logger,
		DBManager:         dbManager,
		RouteMountFunc:    MountAppRoutes,
		BackgroundWorkers: []cartridge.BackgroundWorker{jobsManager},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{Application: app, DBManager: dbManager}, nil
}
