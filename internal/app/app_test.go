package app

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configTemplate = `service_name: kakashi
loglevel: ERROR
host: 127.0.0.1
port: "0"
private_key_path: %s
database:
  type: %s
portal:
  auth_base_url: http://127.0.0.1:50051
  redirect_delay: 2s
  login_path: /login
  view_ttl: 30m
  sweep_interval: 1m
  request_timeout: 5s
rate_limit:
  requests_per_second: 5
  burst: 10
`

func writeKey(t *testing.T, dir string) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0o600))
	return path
}

func writeConfig(t *testing.T, dir, keyPath, dbType string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(fmt.Sprintf(configTemplate, keyPath, dbType))
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestNewApp(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeKey(t, dir)

	tests := []struct {
		name    string
		keyPath string
		dbType  string
		wantErr bool
	}{
		{name: "memory store", keyPath: keyPath, dbType: "memory"},
		{name: "unknown store", keyPath: keyPath, dbType: "redis", wantErr: true},
		{name: "missing key", keyPath: filepath.Join(dir, "missing.pem"), dbType: "memory", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, t.TempDir(), tt.keyPath, tt.dbType)

			app, err := NewApp(configPath, "")
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, app)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, app.Server)
			assert.NotNil(t, app.Registry)
			assert.NotNil(t, app.UserRepo)
			assert.Equal(t, 2*time.Second, app.Config.Portal.RedirectDelay)
		})
	}
}

func TestApp_RunContextStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	app, err := NewApp(writeConfig(t, dir, writeKey(t, dir), "memory"), "")
	require.NoError(t, err)

	app.Registry.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.RunContext(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}
	assert.Equal(t, 0, app.Registry.Len())
}
