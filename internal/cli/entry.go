package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/auri-app/auri/internal/config"
	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/journal"
)

// entryCommand creates the entry command group.
func (c *CLI) entryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Add, list and remove journal entries",
		Long: `Add, list and remove journal entries.

Entries are stored in the configured journal backend (store.backend). The
default in-memory backend starts with sample entries and forgets changes
when the command exits; configure sqlite, mongo or postgres to keep them.`,
	}

	cmd.AddCommand(c.entryAddCommand())
	cmd.AddCommand(c.entryListCommand())
	cmd.AddCommand(c.entryShowCommand())
	cmd.AddCommand(c.entryRemoveCommand())
	cmd.AddCommand(c.entryExportCommand())
	cmd.AddCommand(c.entryImportCommand())

	return cmd
}

func (c *CLI) entryAddCommand() *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Write a journal entry",
		Long: `Write a journal entry.

Without a text argument the entry is read from a prompt when stdin is a
terminal (finish with an empty line) or from stdin otherwise. "-" always
reads stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := entryText(args, os.Stdin)
			if err != nil {
				return err
			}
			return c.runEntryAdd(cmd.Context(), text, analyze)
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "tag the entry with emotions before saving")
	return cmd
}

func (c *CLI) runEntryAdd(ctx context.Context, text string, analyze bool) error {
	e, err := journal.NewEntry(c.Config.User, text)
	if err != nil {
		return err
	}

	if analyze {
		res, err := c.analyze(ctx, e.Text, false)
		if err != nil {
			return err
		}
		e.Analysis = res.Insight
		e.Emotions = res.Emotions
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	e, err = store.Create(ctx, e)
	if err != nil {
		return err
	}

	printSuccess("Saved entry %s", StyleNumber.Render(e.ID.String()))
	if len(e.Emotions) > 0 {
		printKeyValue("Emotions", strings.Join(e.Emotions, ", "))
	}
	if e.Analysis != "" {
		printKeyValue("Insight", e.Analysis)
	}
	if c.Config.Store.Backend == config.StoreMemory {
		printDetail("The in-memory journal is not saved; set store.backend to keep entries.")
	}
	return nil
}

// entryText returns the entry body from args, an interactive prompt, or in.
func entryText(args []string, in io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if len(args) == 0 && isInputTerminal() {
		return promptEntry()
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// promptEntry reads lines until an empty one. Ctrl+C cancels.
func promptEntry() (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	printInfo("How are you feeling today? Finish with an empty line.")
	var lines []string
	for {
		l, err := line.Prompt(iconArrow + " ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			return "", context.Canceled
		case errors.Is(err, io.EOF):
			return strings.Join(lines, "\n"), nil
		case err != nil:
			return "", err
		}
		if strings.TrimSpace(l) == "" {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, l)
	}
}

func (c *CLI) entryListCommand() *cobra.Command {
	var (
		limit int
		since string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List journal entries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := journal.ListOptions{Limit: limit}
			if since != "" {
				t, err := parseSince(since)
				if err != nil {
					return err
				}
				opts.Since = t
			}
			return c.runEntryList(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	cmd.Flags().StringVar(&since, "since", "", "only entries from this date (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func (c *CLI) runEntryList(ctx context.Context, opts journal.ListOptions) error {
	if opts.Limit < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "--limit must be >= 0")
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	entries, err := store.List(ctx, c.Config.User, opts)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printInfo("No entries yet")
		printNextStep("Write one", appName+` entry add "Today I felt..."`)
		return nil
	}

	fmt.Println(entryTable(entries, time.Now()))
	printDetail("%d entries", len(entries))
	return nil
}

func (c *CLI) entryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			e, err := c.findEntry(ctx, store, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render(e.CreatedAt.Local().Format("Monday, Jan 2 2006 15:04")))
			fmt.Fprint(out, renderProse(out, e.Text))
			if len(e.Emotions) > 0 {
				printKeyValue("Emotions", strings.Join(e.Emotions, ", "))
			}
			if e.Analysis != "" {
				printKeyValue("Insight", e.Analysis)
			}
			printKeyValue("ID", e.ID.String())
			return nil
		},
	}
}

func (c *CLI) entryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a journal entry",
		Long: `Delete a journal entry.

The id may be the full entry ID or the unique prefix shown by 'entry list'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			e, err := c.findEntry(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(ctx, c.Config.User, e.ID); err != nil {
				return err
			}
			printSuccess("Deleted entry %s", e.ID)
			return nil
		},
	}
}

// findEntry resolves a full entry ID or a unique ID prefix.
func (c *CLI) findEntry(ctx context.Context, store journal.Store, ref string) (journal.Entry, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		e, err := store.Get(ctx, c.Config.User, id)
		if errors.Is(err, journal.ErrNotFound) {
			return journal.Entry{}, entryNotFound(ref, err)
		}
		return e, err
	}
	if ref == "" {
		return journal.Entry{}, apperrors.New(apperrors.ErrCodeInvalidInput, "entry id is required")
	}

	entries, err := store.List(ctx, c.Config.User, journal.ListOptions{})
	if err != nil {
		return journal.Entry{}, err
	}
	return matchEntry(entries, ref)
}

// matchEntry returns the single entry whose ID starts with prefix.
func matchEntry(entries []journal.Entry, prefix string) (journal.Entry, error) {
	var found []journal.Entry
	for _, e := range entries {
		if strings.HasPrefix(e.ID.String(), prefix) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return journal.Entry{}, entryNotFound(prefix, journal.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return journal.Entry{}, apperrors.New(apperrors.ErrCodeInvalidInput,
			"id prefix %q matches %d entries; use more characters", prefix, len(found))
	}
}

func entryNotFound(ref string, err error) error {
	return apperrors.Wrap(apperrors.ErrCodeNotFound, err, "no entry %q", ref)
}
