package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/cmdsync/internal/reconcile"
)

var checkCmdRunner = func(opts reconcileOptions) error {
	return runReconcile(opts, reconcile.ModeCheck)
}

func newCheckCmd(root *rootFlags) *cobra.Command {
	opts := reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Plan catalog changes without applying them",
		Long: `Check runs the read-only half of the pipeline: identity verification,
scope membership, enumeration, and diff planning. No create or update call
is ever issued. Exit code 0 means the platform already matches the
manifest; 3 means changes are pending.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose

			if err := validateReconcileOptions(opts); err != nil {
				return err
			}

			return checkCmdRunner(opts)
		},
	}

	addReconcileFlags(cmd, &opts)

	return cmd
}
