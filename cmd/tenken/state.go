package main

import (
	"encoding/json"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/tenken/pkg/core"
	"github.com/aretw0/tenken/pkg/typed"
)

var stateRaw bool

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print session and storage state as JSON",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, e *env) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if stateRaw {
			if err := e.sess.Flush(cmd.Context()); err != nil {
				return err
			}
			model, err := typed.NewKey[core.PersistedState](e.sess.Storage, core.KeyState).Load(cmd.Context())
			if err != nil {
				return err
			}
			return enc.Encode(model.Data)
		}

		out := map[string]any{
			e.sess.ComponentType(): e.sess.State(),
		}
		if comp, ok := e.sess.Storage.(interface {
			introspection.Introspectable
			introspection.Component
		}); ok {
			out[comp.ComponentType()] = comp.State()
		}
		return enc.Encode(out)
	}),
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().BoolVar(&stateRaw, "raw", false, "Print the stored answer state instead")
}
