package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateReconcileOptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("version: 1.0.0\n"), 0o644))

	tests := []struct {
		name    string
		opts    reconcileOptions
		wantErr string
	}{
		{
			name: "valid manifest path",
			opts: reconcileOptions{ManifestPath: manifest},
		},
		{
			name:    "empty path",
			opts:    reconcileOptions{ManifestPath: "  "},
			wantErr: "manifest file is required",
		},
		{
			name:    "missing file",
			opts:    reconcileOptions{ManifestPath: filepath.Join(dir, "missing.yaml")},
			wantErr: "does not exist",
		},
		{
			name:    "path is a directory",
			opts:    reconcileOptions{ManifestPath: dir},
			wantErr: "is a directory",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateReconcileOptions(tt.opts)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
