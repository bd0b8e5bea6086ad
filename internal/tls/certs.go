// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

// Package tls generates development certificates and loads the API's
// serving key pair.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	stdtls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
)

// File names inside a certificates directory.
const (
	CAFileName     = "root-ca"
	ServerCertName = "api"
)

// CA holds a certificate authority certificate and private key.
type CA struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// ServerCert holds a server certificate and private key.
type ServerCert struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
	Name        string
}

// DefaultHosts are the SANs used when none are given.
var DefaultHosts = []string{"localhost", "127.0.0.1"}

// GenerateCA creates a self-signed root CA valid for ten years.
func GenerateCA(name string) (*CA, error) {
	key, serial, err := newKeyAndSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Noteful"},
			CommonName:   "Noteful CA " + name,
		},
		NotBefore:             now,
		NotAfter:              now.AddDate(10, 0, 0),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
	}

	cert, err := createCertificate(template, template, &key.PublicKey, key)
	if err != nil {
		return nil, oops.With("operation", "create CA certificate").Wrap(err)
	}
	return &CA{Certificate: cert, PrivateKey: key}, nil
}

// GenerateServerCert creates a one-year server certificate signed by ca.
// Each host is added as an IP SAN if it parses as an IP, otherwise as a DNS
// SAN. An empty hosts list means DefaultHosts.
func GenerateServerCert(ca *CA, name string, hosts []string) (*ServerCert, error) {
	if ca == nil || ca.Certificate == nil || ca.PrivateKey == nil {
		return nil, oops.Code("TLS_CA_REQUIRED").Errorf("a CA is required to sign %s", name)
	}
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}

	key, serial, err := newKeyAndSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Noteful"},
			CommonName:   "noteful-" + name,
		},
		NotBefore:   now,
		NotAfter:    now.AddDate(1, 0, 0),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	cert, err := createCertificate(template, ca.Certificate, &key.PublicKey, ca.PrivateKey)
	if err != nil {
		return nil, oops.With("operation", "create server certificate").With("name", name).Wrap(err)
	}
	return &ServerCert{Certificate: cert, PrivateKey: key, Name: name}, nil
}

// SaveCertificates writes the CA and optionally a server certificate to
// certsDir as root-ca.{crt,key} and {name}.{crt,key}.
func SaveCertificates(certsDir string, ca *CA, serverCert *ServerCert) error {
	if err := os.MkdirAll(certsDir, 0o700); err != nil {
		return oops.Code("TLS_SAVE_FAILED").With("dir", certsDir).Wrap(err)
	}

	if err := savePair(certsDir, CAFileName, ca.Certificate, ca.PrivateKey); err != nil {
		return err
	}
	if serverCert != nil {
		return savePair(certsDir, serverCert.Name, serverCert.Certificate, serverCert.PrivateKey)
	}
	return nil
}

// LoadCA loads root-ca.{crt,key} from certsDir.
func LoadCA(certsDir string) (*CA, error) {
	certPEM, err := os.ReadFile(filepath.Join(certsDir, CAFileName+".crt"))
	if err != nil {
		return nil, oops.Code("TLS_LOAD_FAILED").With("dir", certsDir).With("file", "certificate").Wrap(err)
	}
	keyPEM, err := os.ReadFile(filepath.Join(certsDir, CAFileName+".key"))
	if err != nil {
		return nil, oops.Code("TLS_LOAD_FAILED").With("dir", certsDir).With("file", "key").Wrap(err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, oops.Code("TLS_LOAD_FAILED").With("dir", certsDir).Errorf("decode CA certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, oops.Code("TLS_LOAD_FAILED").With("dir", certsDir).Wrap(err)
	}

	block, _ = pem.Decode(keyPEM)
	if block == nil {
		return nil, oops.Code("TLS_LOAD_FAILED").With("dir", certsDir).Errorf("decode CA key PEM")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, oops.Code("TLS_LOAD_FAILED").With("dir", certsDir).Wrap(err)
	}

	return &CA{Certificate: cert, PrivateKey: key}, nil
}

// EnsureServerCertificates loads the CA in certsDir, creating one if none
// exists, and issues a fresh api certificate for hosts. It returns the
// certificate and key paths.
func EnsureServerCertificates(certsDir string, hosts []string) (certFile, keyFile string, err error) {
	ca, err := LoadCA(certsDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", err
		}
		if ca, err = GenerateCA("dev"); err != nil {
			return "", "", err
		}
	}

	server, err := GenerateServerCert(ca, ServerCertName, hosts)
	if err != nil {
		return "", "", err
	}
	if err := SaveCertificates(certsDir, ca, server); err != nil {
		return "", "", err
	}
	return filepath.Join(certsDir, ServerCertName+".crt"), filepath.Join(certsDir, ServerCertName+".key"), nil
}

// ServerConfig loads a PEM key pair for serving HTTPS with TLS 1.2 or later.
func ServerConfig(certFile, keyFile string) (*stdtls.Config, error) {
	pair, err := stdtls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, oops.Code("TLS_LOAD_FAILED").
			With("cert_file", certFile).
			With("key_file", keyFile).
			Wrap(err)
	}
	return &stdtls.Config{
		Certificates: []stdtls.Certificate{pair},
		MinVersion:   stdtls.VersionTLS12,
	}, nil
}

func newKeyAndSerial() (*ecdsa.PrivateKey, *big.Int, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, oops.Code("TLS_GENERATE_FAILED").With("operation", "generate key").Wrap(err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, oops.Code("TLS_GENERATE_FAILED").With("operation", "generate serial").Wrap(err)
	}
	return key, serial, nil
}

func createCertificate(template, parent *x509.Certificate, pub *ecdsa.PublicKey, signer *ecdsa.PrivateKey) (*x509.Certificate, error) {
	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, signer)
	if err != nil {
		return nil, oops.Code("TLS_GENERATE_FAILED").Wrap(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, oops.Code("TLS_GENERATE_FAILED").Wrap(err)
	}
	return cert, nil
}

func savePair(dir, name string, cert *x509.Certificate, key *ecdsa.PrivateKey) error {
	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return oops.Code("TLS_SAVE_FAILED").With("name", name).Wrap(err)
	}
	if err := writePEM(filepath.Join(dir, name+".crt"), "CERTIFICATE", cert.Raw); err != nil {
		return err
	}
	return writePEM(filepath.Join(dir, name+".key"), "EC PRIVATE KEY", keyBytes)
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return oops.Code("TLS_SAVE_FAILED").With("path", path).Wrap(err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close() //nolint:errcheck // encode error takes precedence
		return oops.Code("TLS_SAVE_FAILED").With("path", path).Wrap(err)
	}
	if err := f.Close(); err != nil {
		return oops.Code("TLS_SAVE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
