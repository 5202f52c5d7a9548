package main

import (
	"io"
	"log/slog"

	"edusmart/config"
	logs "edusmart/internal/infra/log"
	"edusmart/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// deps is what every subcommand needs; tests replace it.
type deps struct {
	loadConfig func() (*config.Config, error)
	openDB     func(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error)
	logOutput  io.Writer
}

func defaultDeps() *deps {
	return &deps{
		loadConfig: config.New,
		openDB:     postgres.Open,
	}
}

// NewRootCmd creates the root command for lmsctl.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultDeps())
}

func newRootCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lmsctl",
		Short:         "Maintenance commands for the EduSmart auth service",
		SilenceUsage:  true,
	}

	cmd.AddCommand(newMigrateCmd(d))
	cmd.AddCommand(newPurgeResetsCmd(d))

	return cmd
}

// setup loads config, builds the logger and opens the primary database.
func (d *deps) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, *gorm.DB, func(), error) {
	cfg, err := d.loadConfig()
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "failed to load config")
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return nil, nil, nil, nil, errors.Errorf("storage driver %q has nothing to maintain", cfg.Storage.Driver)
	}

	out := d.logOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	logger, err := logs.NewWithWriter(out, cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	db, err := d.openDB(cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	return cfg, logger, db, closeDB, nil
}
