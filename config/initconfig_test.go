package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitNamingConfigDefaults(t *testing.T) {
	cfg, err := InitNamingConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, ":8888", cfg.ClientAddr)
	assert.Equal(t, ":8889", cfg.RegistrarAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestInitNamingConfigOverrides(t *testing.T) {
	cfg, err := InitNamingConfig(strings.NewReader("clientaddr: 127.0.0.1:9000\nloglevel: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ClientAddr)
	assert.Equal(t, ":8889", cfg.RegistrarAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestInitNamingConfigRejectsUnknownKey(t *testing.T) {
	_, err := InitNamingConfig(strings.NewReader("bogus: true\n"))
	assert.Error(t, err)
}

func TestInitStorageConfigRequiresRegistrarAndRoot(t *testing.T) {
	_, err := InitStorageConfig(strings.NewReader("listenhost: storage1\n"))
	assert.Error(t, err)

	cfg, err := InitStorageConfig(strings.NewReader("registraraddr: naming:8889\nstorageroot: /var/nsfs/s1\n"))
	require.NoError(t, err)
	assert.Equal(t, "naming:8889", cfg.RegistrarAddr)
	assert.Equal(t, "/var/nsfs/s1", cfg.StorageRoot)
	assert.Equal(t, "info", cfg.LogLevel)
}
