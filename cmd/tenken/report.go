package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tenken/pkg/report"
)

var (
	mailtoTo      string
	mailtoSubject string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the inspection report",
}

var reportTextCmd = &cobra.Command{
	Use:   "text",
	Short: "Print the plain-text report",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		fmt.Fprintln(cmd.OutOrStdout(), report.Text(e.sess.Snapshot(), e.locale))
		return nil
	}),
}

var reportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Print completed answers as CSV",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		return report.WriteCSV(cmd.OutOrStdout(), e.sess.Snapshot(), e.locale)
	}),
}

var reportMailtoCmd = &cobra.Command{
	Use:   "mailto",
	Short: "Print a mailto: link carrying the report",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		snap := e.sess.Snapshot()
		to := firstNonEmpty(mailtoTo, snap.Form.Recipient)
		subject := firstNonEmpty(mailtoSubject, report.Subject(snap, e.locale))
		fmt.Fprintln(cmd.OutOrStdout(), report.MailtoURL(to, subject, report.Text(snap, e.locale)))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportTextCmd, reportCSVCmd, reportMailtoCmd)
	reportMailtoCmd.Flags().StringVar(&mailtoTo, "to", "", "Recipient (default: the form recipient)")
	reportMailtoCmd.Flags().StringVar(&mailtoSubject, "subject", "", "Subject (default: derived from the facility name)")
}
