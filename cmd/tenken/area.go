package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var areaCmd = &cobra.Command{
	Use:   "area",
	Short: "Manage inspection areas",
	Long: `Manage inspection areas. AREA may be an area id, its 1-based position in
the list or its exact name.`,
}

var areaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List areas (* marks the active one)",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		active := e.sess.ActiveAreaID()
		total := e.sess.Schema().ItemCount()
		for i, a := range e.sess.Areas() {
			done := len(e.sess.CompletedItems(a.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d. %s  %d/%d  %s\n", activeMarker(a.ID == active), i+1, a.DisplayName(i), done, total, a.ID)
		}
		return nil
	}),
}

var areaAddCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Add an area and make it active",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		a := e.sess.AddArea(name)
		fmt.Fprintf(cmd.OutOrStdout(), "Added area %s\n", a.ID)
		return nil
	}),
}

var areaRemoveCmd = &cobra.Command{
	Use:   "remove AREA",
	Short: "Remove an area and all its answers",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		a, err := resolveArea(e.sess, args[0])
		if err != nil {
			return fmt.Errorf("%w: %s", err, args[0])
		}
		if err := e.sess.RemoveArea(a.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed area %s\n", a.ID)
		return nil
	}),
}

var areaSelectCmd = &cobra.Command{
	Use:   "select AREA",
	Short: "Make an area active",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		a, err := resolveArea(e.sess, args[0])
		if err != nil {
			return fmt.Errorf("%w: %s", err, args[0])
		}
		e.sess.SetActiveArea(a.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Active area %s\n", a.ID)
		return nil
	}),
}

var areaRenameCmd = &cobra.Command{
	Use:   "rename AREA NAME",
	Short: "Rename an area",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		a, err := resolveArea(e.sess, args[0])
		if err != nil {
			return fmt.Errorf("%w: %s", err, args[0])
		}
		return e.sess.RenameArea(a.ID, args[1])
	}),
}

var areaNotesCmd = &cobra.Command{
	Use:   "notes AREA TEXT",
	Short: "Set the free-form notes of an area",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		a, err := resolveArea(e.sess, args[0])
		if err != nil {
			return fmt.Errorf("%w: %s", err, args[0])
		}
		return e.sess.SetAreaNotes(a.ID, args[1])
	}),
}

func init() {
	rootCmd.AddCommand(areaCmd)
	areaCmd.AddCommand(areaListCmd, areaAddCmd, areaRemoveCmd, areaSelectCmd, areaRenameCmd, areaNotesCmd)
}
