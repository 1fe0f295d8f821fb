package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/config"
	"github.com/pixoapp/pixo/credential"
	"github.com/pixoapp/pixo/database"
	"github.com/pixoapp/pixo/objectstore"
)

// app holds the opened backends and the service built on them.
type app struct {
	db      database.Database
	objects *objectstore.Backend
	service *pixo.Service
}

// openApp opens the document backend and object store named by cfg and wires
// the service over them.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	dbCfg := cfg.DatabaseConfig()

	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	slog.Info("connected to document backend", "type", dbCfg.Type)

	objects, err := objectstore.Open(cfg.ObjectStoreConfig())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open object store: %w", err)
	}
	slog.Info("opened object store", "driver", cfg.Objects.Driver)

	service, err := pixo.NewService(pixo.ServiceConfig{
		Documents:      db.Documents(),
		Objects:        objects,
		Credentials:    credential.Plain{},
		Collections:    cfg.Storage.Collections,
		RecoverCorrupt: cfg.Storage.RecoverCorrupt,
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		CleanupTimeout: cfg.CleanupTimeout(),
	})
	if err != nil {
		_ = objects.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	return &app{db: db, objects: objects, service: service}, nil
}

func (a *app) Close() error {
	return errors.Join(a.objects.Close(), a.db.Close())
}
