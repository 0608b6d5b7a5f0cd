package initializers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAvatarConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avatars.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("AVATARS_CONFIG_FILE", path)
}

func TestLoadAvatarConfigReadsAllKeys(t *testing.T) {
	writeAvatarConfig(t, `
max_avatar_size: 1048576
allowed_avatar_types:
  - image/png
presigned_url_expiry: 120
`)
	cfg, err := loadAvatarConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), cfg.MaxAvatarSize)
	assert.Equal(t, []string{"image/png"}, cfg.AllowedAvatarTypes)
	assert.Equal(t, 120, cfg.PresignedURLExpiry)
}

func TestLoadAvatarConfigRejectsUnknownKeys(t *testing.T) {
	writeAvatarConfig(t, `
max_avatar_size: 1048576
avatar_types:
  - image/png
`)
	_, err := loadAvatarConfig()
	assert.Error(t, err, "misspelled keys must not be dropped silently")
}

func TestLoadAvatarConfigShippedFileParses(t *testing.T) {
	data, err := os.ReadFile("../config/avatars.yaml")
	require.NoError(t, err)
	writeAvatarConfig(t, string(data))

	cfg, err := loadAvatarConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(2097152), cfg.MaxAvatarSize)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/webp"}, cfg.AllowedAvatarTypes)
	assert.Equal(t, 3600, cfg.PresignedURLExpiry)
}

func TestCheckAvatarAllowed(t *testing.T) {
	old := Conf
	defer func() { Conf = old }()
	Conf = MinioConfig{
		MaxAvatarSize: 100,
		AvatarTypes:   []string{"image/png", "image/jpeg"},
		Expiry:        time.Hour,
	}

	assert.NoError(t, CheckAvatarAllowed(100, "image/png"))
	assert.NoError(t, CheckAvatarAllowed(50, "image/jpeg; charset=binary"))
	assert.Error(t, CheckAvatarAllowed(101, "image/png"))
	assert.Error(t, CheckAvatarAllowed(50, "image/gif"))
}
