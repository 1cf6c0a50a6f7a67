package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/tenken/pkg/core"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage named checklist templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates (* marks the current one)",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		current := e.sess.CurrentTemplate()
		for _, name := range e.sess.Templates() {
			tpl, _ := e.sess.Template(name)
			suffix := ""
			if name == core.BuiltinTemplateName {
				suffix = " (built-in)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s%s  %d items\n", activeMarker(name == current), name, suffix, tpl.Sections.ItemCount())
		}
		return nil
	}),
}

var templateSelectCmd = &cobra.Command{
	Use:   "select NAME",
	Short: "Make a template current and activate its checklist",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		if !e.sess.SelectTemplate(cmd.Context(), args[0]) {
			return fmt.Errorf("%w: %s", core.ErrTemplateNotFound, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Selected template %s\n", args[0])
		return nil
	}),
}

var templateSaveCmd = &cobra.Command{
	Use:   "save [NAME]",
	Short: "Overwrite a template (default: the current one) with the active checklist",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		name := e.sess.CurrentTemplate()
		if len(args) == 1 {
			name = args[0]
		}
		if err := e.sess.SaveTemplate(cmd.Context(), name, e.sess.Schema()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved template %s\n", name)
		return nil
	}),
}

var templateSaveAsCmd = &cobra.Command{
	Use:   "save-as NAME",
	Short: "Store the active checklist as a new template and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		tpl, err := e.sess.SaveTemplateAs(cmd.Context(), args[0], e.sess.Schema())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved template %s\n", tpl.Name)
		return nil
	}),
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		if err := e.sess.DeleteTemplate(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %s (current: %s)\n", args[0], e.sess.CurrentTemplate())
		return nil
	}),
}

var templateImportCmd = &cobra.Command{
	Use:   "import GLOB",
	Short: "Import checklist documents as templates named after their files",
	Long: `Import every checklist document matching GLOB (e.g. 'checklists/**/*.json').
Each file becomes a template named after the file without its extension.
Invalid documents and taken names are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		matches, err := doublestar.FilepathGlob(args[0], doublestar.WithFilesOnly())
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", args[0], err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files match %s", args[0])
		}

		imported := 0
		for _, path := range matches {
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", path, err)
				continue
			}
			schema, err := core.ParseSchema(string(data))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", path, describeSchemaError(err))
				continue
			}
			if _, err := e.sess.ImportTemplate(cmd.Context(), name, schema); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", path, err)
				continue
			}
			imported++
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s from %s\n", name, path)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d templates imported\n", imported, len(matches))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateListCmd, templateSelectCmd, templateSaveCmd, templateSaveAsCmd, templateDeleteCmd, templateImportCmd)
}
