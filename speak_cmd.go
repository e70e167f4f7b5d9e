package main

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/deutschmaster/internal/audio"
	"github.com/example/deutschmaster/internal/speech"
)

var speakCmd = &cobra.Command{
	Use:     "speak TEXT...",
	Short:   "Pronounce German text aloud",
	Example: "deutschmaster speak Hund\ndeutschmaster speak \"Der Hund bellt\"",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		opts := []speech.Option{
			speech.WithRetryBase(viper.GetDuration("speech.retry_base")),
		}
		if dir, err := dataDir(); err == nil {
			if disk, err := speech.NewDiskCache(filepath.Join(dir, "pronunciations")); err == nil {
				opts = append(opts, speech.WithDiskCache(disk))
			}
		}

		speaker := speech.NewSpeaker(
			speech.NewCache(),
			speech.NewHTTPGenerator(viper.GetString("speech.endpoint"), nil),
			speech.NewEspeakFallback(),
			audio.NewContext(),
			opts...,
		)

		speaker.Speak(cmd.Context(), text,
			func() { log.Debug("speaking", "text", text) },
			func() { log.Debug("finished", "text", text) },
		)
		return nil
	},
}
