// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCerts(t *testing.T, args ...string) string {
	t.Helper()
	configFile = ""
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs(append([]string{"certs"}, args...))
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestCertsCommand_ExplicitDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "certs")

	out := runCerts(t, "--dir", dir, "--host", "noteful.test", "--host", "10.0.0.1")

	for _, name := range []string{"root-ca.crt", "root-ca.key", "api.crt", "api.key"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
	assert.Contains(t, out, filepath.Join(dir, "api.crt"))
	assert.Contains(t, out, filepath.Join(dir, "api.key"))
}

func TestCertsCommand_DefaultDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	out := runCerts(t)

	want := filepath.Join(base, "noteful", "certs", "api.crt")
	_, err := os.Stat(want)
	require.NoError(t, err)
	assert.Contains(t, out, want)
}
