package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/example/deutschmaster/internal/store"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Reconcile the local collection with the shared sheet",
	Example: "deutschmaster sync\ndeutschmaster sync --sheet https://script.google.com/macros/s/.../exec",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		url, err := a.sheetURL()
		if err != nil {
			return err
		}
		if url == "" {
			return errors.New("no sheet endpoint configured: set sheet.url or pass --sheet")
		}

		if err := a.rec.Sync(cmd.Context(), url); err != nil {
			return err
		}
		a.rec.Wait()

		list, err := a.store.Words()
		if err != nil {
			return err
		}
		if err := store.WriteSnapshot(a.dir, list); err != nil {
			log.Warn("could not write backup snapshot", "err", err)
		}

		marker, _ := a.store.LastSyncedAt()
		fmt.Printf("Synced %d words. Last synced: %s\n", len(list), marker)
		return nil
	},
}
