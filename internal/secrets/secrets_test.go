// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   Secrets
		errMsg string
	}{
		{
			name: "reads and trims the salt file",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeSalt(t, dir, "  s3cr3t-salt  \n")
				return dir
			},
			want: Secrets{RedactionSalt: "s3cr3t-salt"},
		},
		{
			name: "missing directory yields empty salt",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "missing salt file yields empty salt",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: Secrets{},
		},
		{
			name: "whitespace-only salt file yields empty salt",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeSalt(t, dir, "   \n\t  ")
				return dir
			},
			want: Secrets{},
		},
		{
			name: "multi-line salt file is rejected",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeSalt(t, dir, "first-line\nsecond-line\n")
				return dir
			},
			errMsg: "single line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableSaltFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, SaltFile)
	require.NoError(t, os.WriteFile(path, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(path, 0o644) })

	_, err := Load(dir)
	require.Error(t, err)
}

func writeSalt(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SaltFile), []byte(content), 0o600))
}
