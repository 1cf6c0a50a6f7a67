package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tenken/pkg/core"
)

var (
	answerStatus string
	answerNote   string
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Record answers for checklist items",
}

var answerSetCmd = &cobra.Command{
	Use:   "set AREA ITEM",
	Short: "Set the status and/or note of one item (use . for the active area)",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		areaID, err := areaArg(e, args[0])
		if err != nil {
			return err
		}

		var patch core.AnswerPatch
		if cmd.Flags().Changed("status") {
			status, err := core.ParseStatus(answerStatus)
			if err != nil {
				return err
			}
			patch.Status = &status
		}
		if cmd.Flags().Changed("note") {
			note := answerNote
			patch.Note = &note
		}
		if patch.Status == nil && patch.Note == nil {
			return fmt.Errorf("nothing to record: pass --status and/or --note")
		}

		ans, err := e.sess.SetAnswer(areaID, args[1], patch)
		if err != nil {
			return fmt.Errorf("%w: %s", err, args[1])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[1], statusBadge(ans.Status, e.locale))
		return nil
	}),
}

var answerClearCmd = &cobra.Command{
	Use:   "clear AREA",
	Short: "Clear every answer of an area (use . for the active area)",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		areaID, err := areaArg(e, args[0])
		if err != nil {
			return err
		}
		return e.sess.ClearAnswers(areaID)
	}),
}

func areaArg(e *env, ref string) (string, error) {
	if ref == "." {
		return e.sess.ActiveAreaID(), nil
	}
	a, err := resolveArea(e.sess, ref)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, ref)
	}
	return a.ID, nil
}

func init() {
	rootCmd.AddCommand(answerCmd)
	answerCmd.AddCommand(answerSetCmd, answerClearCmd)
	answerSetCmd.Flags().StringVarP(&answerStatus, "status", "s", "", "ok, attention, issue or unset")
	answerSetCmd.Flags().StringVarP(&answerNote, "note", "n", "", "Free-form note")
}
