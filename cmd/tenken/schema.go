package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aretw0/tenken/pkg/adapters/fs"
	"github.com/aretw0/tenken/pkg/adapters/lifecycle"
	"github.com/aretw0/tenken/pkg/core"
)

var (
	schemaOutput  string
	watchDebounce = fs.DefaultWatchDebounce
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show or change the active checklist",
}

var schemaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active checklist as an outline",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		out := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		fmt.Fprintf(out, "%s %s\n", bold.Sprint("Template:"), e.sess.CurrentTemplate())
		for _, sec := range e.sess.Schema() {
			fmt.Fprintf(out, "%s [%s]\n", bold.Sprint(sec.Title), sec.ID)
			for _, it := range sec.Items {
				fmt.Fprintf(out, "  - %s (%s)\n", it.Title, it.ID)
			}
		}
		return nil
	}),
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active checklist document",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		text, err := e.sess.SchemaText()
		if err != nil {
			return err
		}
		if schemaOutput == "" || schemaOutput == "-" {
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}
		return fs.WriteFileAtomic(schemaOutput, []byte(text+"\n"), 0644)
	}),
}

var schemaApplyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Validate a checklist document and make it active (- reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		before := answerCount(e.sess.Areas())
		schema, err := e.sess.ApplySchemaText(cmd.Context(), text)
		if err != nil {
			return describeSchemaError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied checklist: %d categories, %d items\n", len(schema), schema.ItemCount())
		if dropped := before - answerCount(e.sess.Areas()); dropped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d answers for removed items were discarded\n", color.New(color.FgYellow).Sprint("!"), dropped)
		}
		return nil
	}),
}

var schemaResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Return to the built-in template and its checklist",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		e.sess.ResetSchema(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "Checklist reset to %s\n", e.sess.CurrentTemplate())
		return nil
	}),
}

var schemaWatchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Apply a checklist document every time it is saved",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchSchema(ctx, cmd.OutOrStdout(), e, args[0])
	}),
}

// watchSchema applies path once and then on every settled change until ctx ends.
func watchSchema(ctx context.Context, out io.Writer, e *env, path string) error {
	apply := func(text string) {
		schema, err := e.sess.ApplySchemaText(ctx, text)
		if err != nil {
			slog.Warn("checklist rejected", "file", path, "error", describeSchemaError(err))
			return
		}
		fmt.Fprintf(out, "Applied checklist: %d categories, %d items\n", len(schema), schema.ItemCount())
	}

	if data, err := os.ReadFile(path); err == nil {
		apply(string(data))
	}

	cfg := fs.WatchConfig{Logger: slog.Default(), Debounce: watchDebounce}
	var (
		changes <-chan fs.Change
		err     error
	)
	if store, ok := e.sess.Storage.(*fs.Storage); ok {
		changes, err = store.Watch(ctx, path, cfg)
	} else {
		changes, err = fs.WatchFile(ctx, path, cfg)
	}
	if err != nil {
		return err
	}
	slog.Info("watching checklist document", "file", path)

	src := lifecycle.NewSource(changes)
	if err := src.Start(ctx); err != nil {
		return err
	}
	for ev := range src.Events() {
		c, ok := ev.(fs.Change)
		if !ok {
			continue
		}
		slog.Debug("checklist document event", "event", c.String())
		if c.Err != nil {
			slog.Warn("failed to read checklist document", "file", c.Path, "error", c.Err)
			continue
		}
		apply(string(c.Content))
	}
	return nil
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(name)
	return string(data), err
}

// describeSchemaError adds the location of a checklist problem to its message.
func describeSchemaError(err error) error {
	var se *core.SchemaError
	if errors.As(err, &se) && se.Path != "" {
		return fmt.Errorf("checklist rejected at %s: %s", se.Path, se.Message)
	}
	if errors.As(err, &se) {
		return fmt.Errorf("checklist rejected: %s", se.Message)
	}
	return err
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaShowCmd, schemaExportCmd, schemaApplyCmd, schemaResetCmd, schemaWatchCmd)
	schemaExportCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Write to this file instead of stdout")
	schemaWatchCmd.Flags().DurationVar(&watchDebounce, "debounce", fs.DefaultWatchDebounce, "Quiet period after a save before applying")
}
