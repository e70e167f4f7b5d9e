package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/deutschmaster/internal/sheets"
	"github.com/example/deutschmaster/internal/words"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the word collection, newest first",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		quietLogsUnlessDebug()
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		list, err := a.store.Words()
		if err != nil {
			return err
		}
		for _, w := range list {
			article := ""
			if w.Gender != words.GenderNone && w.Gender != "" {
				article = w.Gender + " "
			}
			fmt.Printf("%-30s %-30s %3d%%  %s\n",
				article+w.Word, w.Meaning, w.MasteryLevel, humanize.Time(w.Created()))
		}

		if marker, err := a.store.LastSyncedAt(); err == nil && marker != "" {
			fmt.Printf("\n%d words. Last synced: %s\n", len(list), marker)
		} else {
			fmt.Printf("\n%d words. Never synced.\n", len(list))
		}
		return nil
	},
}

var (
	addGender  string
	addMeaning string
	addIPA     string
	addPOS     string
	addPlural  string
)

var addCmd = &cobra.Command{
	Use:     "add WORD",
	Short:   "Add a word to the collection",
	Example: "deutschmaster add Hund --gender der --meaning \"con chó\" --plural Hunde",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		w := words.Word{
			ID:           uuid.NewString(),
			Word:         args[0],
			Gender:       addGender,
			Meaning:      addMeaning,
			IPA:          addIPA,
			PartOfSpeech: addPOS,
			Plural:       addPlural,
			Synonyms:     []string{},
			Examples:     []words.Example{},
			CreatedAt:    time.Now().UnixMilli(),
		}
		if w.Gender == "" {
			w.Gender = words.GenderNone
		}
		if w.PartOfSpeech == "" {
			w.PartOfSpeech = "noun"
		}

		if existing, err := a.store.Words(); err == nil {
			if words.FindMatch(existing, w) >= 0 {
				return fmt.Errorf("%q is already in the collection", w.Word)
			}
		}

		if err := a.store.Insert(w); err != nil {
			return err
		}

		if url, err := a.sheetURL(); err == nil && url != "" {
			// Best effort; the next sync picks it up if this misses.
			if !a.client.PushOne(cmd.Context(), url, sheets.ActionAddWord, w) {
				log.Debug("push of new word did not land", "word", w.Word)
			}
		}

		fmt.Printf("Added %q.\n", w.Word)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete WORD",
	Short:   "Remove a word from the collection",
	Example: "deutschmaster delete Hund",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		w, err := findWord(a, args[0])
		if err != nil {
			return err
		}

		url, _ := a.sheetURL()
		if err := a.rec.Delete(cmd.Context(), url, w); err != nil {
			return err
		}
		fmt.Printf("Deleted %q.\n", w.Word)
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:     "progress WORD LEVEL",
	Short:   "Record a new mastery score for a word",
	Example: "deutschmaster progress Hund 60",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("mastery level must be a number: %w", err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		w, err := findWord(a, args[0])
		if err != nil {
			return err
		}

		if err := a.store.UpdateMastery(w.ID, level); err != nil {
			return err
		}
		w.MasteryLevel = level

		if url, _ := a.sheetURL(); url != "" {
			a.rec.PushProgress(cmd.Context(), url, w)
		}

		fmt.Printf("%q is now at %d%%.\n", w.Word, level)
		return nil
	},
}

// findWord locates a collection entry by id or word text.
func findWord(a *app, key string) (words.Word, error) {
	list, err := a.store.Words()
	if err != nil {
		return words.Word{}, err
	}
	i := words.FindMatch(list, words.Word{ID: key, Word: key})
	if i < 0 {
		return words.Word{}, fmt.Errorf("%q is not in the collection", key)
	}
	return list[i], nil
}

func init() {
	addCmd.Flags().StringVar(&addGender, "gender", "", "article: der, die, das or none")
	addCmd.Flags().StringVar(&addMeaning, "meaning", "", "Vietnamese meaning")
	addCmd.Flags().StringVar(&addIPA, "ipa", "", "IPA transcription")
	addCmd.Flags().StringVar(&addPOS, "pos", "", "part of speech (default noun)")
	addCmd.Flags().StringVar(&addPlural, "plural", "", "plural form")
}
