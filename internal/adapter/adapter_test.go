package adapter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/storebuilder/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTLSConfig(t *testing.T) {
	t.Run("system roots", func(t *testing.T) {
		cfg, err := adapter.LoadTLSConfig(adapter.TLSFiles{})
		require.NoError(t, err)
		assert.Nil(t, cfg.RootCAs)
		assert.Empty(t, cfg.Certificates)
	})

	t.Run("missing CA file", func(t *testing.T) {
		_, err := adapter.LoadTLSConfig(adapter.TLSFiles{
			CAFile: filepath.Join(t.TempDir(), "ca.pem"),
		})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("CA file is not PEM", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

		_, err := adapter.LoadTLSConfig(adapter.TLSFiles{CAFile: path})
		assert.ErrorContains(t, err, "failed to parse CA certificate")
	})

	t.Run("cert without key", func(t *testing.T) {
		_, err := adapter.LoadTLSConfig(adapter.TLSFiles{CertFile: "client.pem"})
		assert.ErrorContains(t, err, "cert and key files go together")
	})
}
