package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/cmdsync/internal/reconcile"
)

var applyCmdRunner = func(opts reconcileOptions) error {
	return runReconcile(opts, reconcile.ModeApply)
}

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the platform catalog to match the manifest",
		Long: `Apply runs the full pipeline: identity verification, scope membership,
enumeration, diff planning, sequential upsert, and convergence
verification. Commands present on the platform but absent from the
manifest are never deleted or modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose

			if err := validateReconcileOptions(opts); err != nil {
				return err
			}

			return applyCmdRunner(opts)
		},
	}

	addReconcileFlags(cmd, &opts)

	return cmd
}
