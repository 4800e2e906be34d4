package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/cmdsync/internal/config"
)

type reconcileOptions struct {
	ManifestPath string
	Credential   string
	APIURL       string
	ScopeID      string
	EvidenceDir  string
	CallTimeout  time.Duration
	RunTimeout   time.Duration
	JSON         bool
	Verbose      bool
}

func addReconcileFlags(cmd *cobra.Command, opts *reconcileOptions) {
	cmd.Flags().StringVarP(&opts.ManifestPath, "manifest", "m", "", "Path to the command manifest file")
	cmd.Flags().StringVar(&opts.Credential, "credential", "", "Platform credential (falls back to CMDSYNC_TOKEN)")
	cmd.Flags().StringVar(&opts.ScopeID, "scope", "", "Target scope id (falls back to the manifest's scope)")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "Platform API base URL")
	cmd.Flags().StringVar(&opts.EvidenceDir, "evidence-dir", "", "Directory for run evidence (default ~/.cmdsync/evidence)")
	cmd.Flags().DurationVar(&opts.CallTimeout, "timeout", config.DefaultCallTimeout, "Per-call HTTP timeout")
	cmd.Flags().DurationVar(&opts.RunTimeout, "run-timeout", config.DefaultRunTimeout, "Whole-run wall clock budget")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Emit the evidence record as JSON on stdout")
	cmd.MarkFlagRequired("manifest") //nolint:errcheck
}

func validateReconcileOptions(opts reconcileOptions) error {
	if strings.TrimSpace(opts.ManifestPath) == "" {
		return fmt.Errorf("manifest file is required")
	}

	abs, err := filepath.Abs(opts.ManifestPath)
	if err != nil {
		return fmt.Errorf("resolve manifest path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("manifest file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("manifest path %s is a directory", abs)
	}

	return nil
}
