package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 3001, cfg.Server.Port)
	require.Equal(t, "data/policies.cleaned.json", cfg.Server.PolicyFile)
	require.Equal(t, 9000, cfg.Crawler.MaxTextChars)
	require.Equal(t, "policies.json", cfg.Crawler.RawObject)
	require.Equal(t, "policies.cleaned.json", cfg.Crawler.CleanedObject)
	require.Equal(t, 5, cfg.Crawler.StalenessYears)
	require.Equal(t, 15*time.Second, cfg.HTTP.Timeout())
	require.Equal(t, "local", cfg.Storage.Provider)
	require.Equal(t, "noop", cfg.Database.Provider)
	require.Equal(t, "noop", cfg.Notify.Provider)
	require.False(t, cfg.Headless.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 8080
crawler:
  source_urls:
    - https://www.congress.gov/bill/118th-congress/senate-bill/3312
    - https://nvlpubs.nist.gov/nistpubs/ai/NIST.AI.600-1.pdf
storage:
  provider: local
  base_dir: /tmp/policy-data
logging:
  development: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Len(t, cfg.Crawler.SourceURLs, 2)
	require.Equal(t, "/tmp/policy-data", cfg.Storage.BaseDir)
	require.True(t, cfg.Logging.Development)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	badPort := base()
	badPort.Server.Port = 0
	require.Error(t, badPort.Validate())

	badStorage := base()
	badStorage.Storage.Provider = "s3"
	require.Error(t, badStorage.Validate())

	gcsNoBucket := base()
	gcsNoBucket.Storage.Provider = "gcs"
	require.Error(t, gcsNoBucket.Validate())

	pgNoDSN := base()
	pgNoDSN.Database.Provider = "postgres"
	require.Error(t, pgNoDSN.Validate())

	pubsubIncomplete := base()
	pubsubIncomplete.Notify.Provider = "pubsub"
	require.Error(t, pubsubIncomplete.Validate())
}
