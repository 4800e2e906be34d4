package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/alexisbeaulieu97/cmdsync/internal/config"
	"github.com/alexisbeaulieu97/cmdsync/internal/evidence"
	"github.com/alexisbeaulieu97/cmdsync/internal/logger"
	"github.com/alexisbeaulieu97/cmdsync/internal/model"
	"github.com/alexisbeaulieu97/cmdsync/internal/reconcile"
)

// osExit is swappable in tests.
var osExit = os.Exit

func runReconcile(opts reconcileOptions, mode reconcile.Mode) error {
	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: !opts.JSON})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		osExit(reconcile.ExitFatal)
		return nil
	}

	manifest, err := config.ParseManifest(opts.ManifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing manifest: %v\n", err)
		recordEarlyFailure(opts, mode, err)
		osExit(reconcile.ExitFatal)
		return nil
	}

	scopeID := opts.ScopeID
	if scopeID == "" {
		scopeID = manifest.Scope
	}

	settings, err := config.ResolveSettings(opts.Credential, opts.APIURL, scopeID, opts.EvidenceDir, opts.CallTimeout, opts.RunTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving settings: %v\n", err)
		recordEarlyFailure(opts, mode, err)
		osExit(reconcile.ExitFatal)
		return nil
	}

	log.WithFields(map[string]any{
		"mode":     string(mode),
		"manifest": opts.ManifestPath,
		"scope":    settings.ScopeID,
		"commands": len(manifest.Commands),
	}).Info("starting reconciliation")

	runner := reconcile.NewRunner(settings, log)
	result := runner.Run(context.Background(), mode, manifest.Specs())

	ev := evidence.NewRecorder(settings).Record(result)
	if path, storeErr := writeEvidence(settings.EvidenceDir, ev); storeErr != nil {
		log.Error(storeErr, "failed to persist evidence")
	} else {
		log.WithFields(map[string]any{"path": path}).Debug("evidence written")
	}

	printRunOutput(opts, ev, result)

	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "Run failed at stage %s: %v\n", result.FailedStage, result.Err)
	}
	if result.Err == nil && !result.Membership.Member {
		fmt.Fprintf(os.Stderr, "Principal has no access to scope %s.\nAuthorize it first: %s\n",
			settings.ScopeID, result.Membership.AuthorizeURL)
	}

	osExit(result.ExitCode())
	return nil
}

func printRunOutput(opts reconcileOptions, ev model.RunEvidence, result *reconcile.Result) {
	if opts.JSON {
		data, err := json.MarshalIndent(ev, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding evidence: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	fmt.Print(evidence.Render(ev, styled))
}

// recordEarlyFailure persists evidence for runs that failed before the
// pipeline started. Best effort: a failure here must not hide the original
// error, so it only logs to stderr.
func recordEarlyFailure(opts reconcileOptions, mode reconcile.Mode, cause error) {
	settings := &config.Settings{
		Credential:  opts.Credential,
		ScopeID:     opts.ScopeID,
		EvidenceDir: opts.EvidenceDir,
	}
	if settings.EvidenceDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		settings.EvidenceDir = home + "/.cmdsync/evidence"
	}

	result := &reconcile.Result{
		Mode:        mode,
		Stage:       model.StageFailed,
		FailedStage: model.StageInit,
		Err:         cause,
	}
	ev := evidence.NewRecorder(settings).Record(result)
	if _, err := writeEvidence(settings.EvidenceDir, ev); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not persist failure evidence: %v\n", err)
	}
}

func writeEvidence(dir string, ev model.RunEvidence) (string, error) {
	store, err := evidence.NewStore(dir)
	if err != nil {
		return "", err
	}
	return store.Write(ev)
}
