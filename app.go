package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/example/deutschmaster/internal/sheets"
	"github.com/example/deutschmaster/internal/store"
	"github.com/example/deutschmaster/internal/syncer"
)

// app bundles the collaborators shared by most commands.
type app struct {
	dir    string
	store  *store.Store
	client *sheets.Client
	rec    *syncer.Reconciler
}

func openApp() (*app, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(filepath.Join(dir, "words.db"))
	if err != nil {
		return nil, fmt.Errorf("could not open word database: %w", err)
	}
	client := sheets.NewClient(nil)
	return &app{
		dir:    dir,
		store:  st,
		client: client,
		rec:    syncer.New(client, st),
	}, nil
}

// close waits for in-flight pushes so best-effort requests actually
// leave before the process exits.
func (a *app) close() {
	a.rec.Wait()
	_ = a.store.Close()
}

// sheetURL resolves the remote endpoint: flag or config first, then
// the last value persisted in the database. A value from config is
// remembered so later invocations work without it.
func (a *app) sheetURL() (string, error) {
	if u := viper.GetString("sheet.url"); u != "" {
		if err := a.store.SetSheetURL(u); err != nil {
			return "", err
		}
		return u, nil
	}
	return a.store.SheetURL()
}
