package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/tenken/pkg/core"
)

var formFields = map[string]func(*core.FormMeta) *string{
	"facility":  func(f *core.FormMeta) *string { return &f.FacilityName },
	"location":  func(f *core.FormMeta) *string { return &f.FacilityLocation },
	"date":      func(f *core.FormMeta) *string { return &f.InspectionDate },
	"inspector": func(f *core.FormMeta) *string { return &f.InspectorName },
	"recipient": func(f *core.FormMeta) *string { return &f.Recipient },
	"notes":     func(f *core.FormMeta) *string { return &f.GlobalNotes },
}

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Edit the inspection header fields",
}

var formSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set header fields; only the flags given are changed",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		e.sess.UpdateForm(func(f *core.FormMeta) {
			for flag, field := range formFields {
				if cmd.Flags().Changed(flag) {
					v, _ := cmd.Flags().GetString(flag)
					*field(f) = v
				}
			}
		})
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(formCmd)
	formCmd.AddCommand(formSetCmd)
	formSetCmd.Flags().String("facility", "", "Facility name")
	formSetCmd.Flags().String("location", "", "Facility location")
	formSetCmd.Flags().String("date", "", "Inspection date (YYYY-MM-DD)")
	formSetCmd.Flags().String("inspector", "", "Inspector name")
	formSetCmd.Flags().String("recipient", "", "Report recipient e-mail")
	formSetCmd.Flags().String("notes", "", "Remarks for the whole inspection")
}
