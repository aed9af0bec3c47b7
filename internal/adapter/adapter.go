package adapter

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSFiles are the PEM file paths of a TLS client. Empty paths are skipped:
// without CAFile the system roots are used, without CertFile and KeyFile no
// client certificate is presented.
type TLSFiles struct {
	CAFile   string
	CertFile string
	KeyFile  string
}

// LoadTLSConfig returns a client [*tls.Config] for broker connections.
func LoadTLSConfig(files TLSFiles) (*tls.Config, error) {
	const op = "adapter.LoadTLSConfig"

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if files.CAFile != "" {
		caCert, err := os.ReadFile(files.CAFile)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: failed to read CA certificate file: %w", op, err,
			)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("%s: failed to parse CA certificate", op)
		}
		cfg.RootCAs = caCertPool
	}

	if (files.CertFile == "") != (files.KeyFile == "") {
		return nil, fmt.Errorf(
			"%s: %w", op, errors.New("cert and key files go together"),
		)
	}
	if files.CertFile != "" {
		clientCert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cfg.Certificates = []tls.Certificate{clientCert}
	}

	return cfg, nil
}
