// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package tls

import (
	stdtls "crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/pkg/errutil"
)

func TestGenerateCA(t *testing.T) {
	ca, err := GenerateCA("dev")
	require.NoError(t, err)
	require.NotNil(t, ca.PrivateKey)

	cert := ca.Certificate
	assert.True(t, cert.IsCA)
	assert.Equal(t, "Noteful CA dev", cert.Subject.CommonName)
	assert.Equal(t, []string{"Noteful"}, cert.Subject.Organization)
	assert.NotZero(t, cert.KeyUsage&x509.KeyUsageCertSign)
	assert.WithinDuration(t, time.Now().AddDate(10, 0, 0), cert.NotAfter, time.Minute)
}

func TestGenerateCA_UniqueSerials(t *testing.T) {
	a, err := GenerateCA("dev")
	require.NoError(t, err)
	b, err := GenerateCA("dev")
	require.NoError(t, err)
	assert.NotEqual(t, a.Certificate.SerialNumber, b.Certificate.SerialNumber)
}

func TestGenerateServerCert(t *testing.T) {
	ca, err := GenerateCA("dev")
	require.NoError(t, err)

	t.Run("default hosts", func(t *testing.T) {
		sc, err := GenerateServerCert(ca, ServerCertName, nil)
		require.NoError(t, err)
		assert.Equal(t, ServerCertName, sc.Name)
		assert.Equal(t, "noteful-api", sc.Certificate.Subject.CommonName)
		assert.Equal(t, []string{"localhost"}, sc.Certificate.DNSNames)
		require.Len(t, sc.Certificate.IPAddresses, 1)
		assert.True(t, sc.Certificate.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
		assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, sc.Certificate.ExtKeyUsage)
		assert.WithinDuration(t, time.Now().AddDate(1, 0, 0), sc.Certificate.NotAfter, time.Minute)
	})

	t.Run("custom hosts split into DNS and IP", func(t *testing.T) {
		sc, err := GenerateServerCert(ca, ServerCertName, []string{"api.noteful.test", "10.0.0.5", "::1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"api.noteful.test"}, sc.Certificate.DNSNames)
		assert.Len(t, sc.Certificate.IPAddresses, 2)
	})

	t.Run("chains to CA", func(t *testing.T) {
		sc, err := GenerateServerCert(ca, ServerCertName, nil)
		require.NoError(t, err)

		roots := x509.NewCertPool()
		roots.AddCert(ca.Certificate)
		_, err = sc.Certificate.Verify(x509.VerifyOptions{
			Roots:     roots,
			DNSName:   "localhost",
			KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		})
		require.NoError(t, err)
	})

	t.Run("requires CA", func(t *testing.T) {
		_, err := GenerateServerCert(nil, ServerCertName, nil)
		errutil.AssertErrorCode(t, err, "TLS_CA_REQUIRED")
		_, err = GenerateServerCert(&CA{}, ServerCertName, nil)
		errutil.AssertErrorCode(t, err, "TLS_CA_REQUIRED")
	})
}

func TestSaveAndLoadCA(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	ca, err := GenerateCA("dev")
	require.NoError(t, err)
	sc, err := GenerateServerCert(ca, ServerCertName, nil)
	require.NoError(t, err)

	require.NoError(t, SaveCertificates(dir, ca, sc))

	for _, name := range []string{"root-ca.crt", "root-ca.key", "api.crt", "api.key"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), name)
	}

	loaded, err := LoadCA(dir)
	require.NoError(t, err)
	assert.True(t, loaded.Certificate.Equal(ca.Certificate))
	assert.True(t, loaded.PrivateKey.Equal(ca.PrivateKey))
}

func TestSaveCertificates_CAOnly(t *testing.T) {
	dir := t.TempDir()
	ca, err := GenerateCA("dev")
	require.NoError(t, err)

	require.NoError(t, SaveCertificates(dir, ca, nil))
	_, err = os.Stat(filepath.Join(dir, "api.crt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCA_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{"missing files", func(*testing.T, string) {}},
		{"missing key", func(t *testing.T, dir string) {
			ca, err := GenerateCA("dev")
			require.NoError(t, err)
			require.NoError(t, SaveCertificates(dir, ca, nil))
			require.NoError(t, os.Remove(filepath.Join(dir, "root-ca.key")))
		}},
		{"garbage certificate", func(t *testing.T, dir string) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "root-ca.crt"), []byte("not pem"), 0o600))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "root-ca.key"), []byte("not pem"), 0o600))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			_, err := LoadCA(dir)
			errutil.AssertErrorCode(t, err, "TLS_LOAD_FAILED")
		})
	}
}

func TestEnsureServerCertificates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")

	certFile, keyFile, err := EnsureServerCertificates(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "api.crt"), certFile)
	assert.Equal(t, filepath.Join(dir, "api.key"), keyFile)

	first, err := LoadCA(dir)
	require.NoError(t, err)

	// A second run reuses the CA.
	_, _, err = EnsureServerCertificates(dir, []string{"noteful.test"})
	require.NoError(t, err)
	second, err := LoadCA(dir)
	require.NoError(t, err)
	assert.True(t, first.Certificate.Equal(second.Certificate))
}

func TestServerConfig_ServesHTTPS(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile, err := EnsureServerCertificates(dir, nil)
	require.NoError(t, err)

	cfg, err := ServerConfig(certFile, keyFile)
	require.NoError(t, err)
	assert.Equal(t, uint16(stdtls.VersionTLS12), cfg.MinVersion)
	require.Len(t, cfg.Certificates, 1)

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	srv.TLS = cfg
	srv.StartTLS()
	defer srv.Close()

	ca, err := LoadCA(dir)
	require.NoError(t, err)
	roots := x509.NewCertPool()
	roots.AddCert(ca.Certificate)
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: &stdtls.Config{RootCAs: roots, MinVersion: stdtls.VersionTLS12}}}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServerConfig_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := ServerConfig(filepath.Join(dir, "api.crt"), filepath.Join(dir, "api.key"))
	errutil.AssertErrorCode(t, err, "TLS_LOAD_FAILED")
}
