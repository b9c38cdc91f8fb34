package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyrpg/backend/internal/shared/types"
)

func TestEmbeddedManifest(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, c.List())
	assert.Equal(t, types.TierSmall, c.Tier("chat"))
	assert.Equal(t, types.TierLarge, c.Tier("browser"))
	assert.Equal(t, "Inbox", c.Title("inbox"))

	// Apps the narrative opens by id must exist.
	for _, appID := range []string{"training", "lawsuit", "chat", "inbox"} {
		_, ok := c.Get(appID)
		assert.True(t, ok, "manifest missing %s", appID)
	}
}

func TestUnknownAppDefaults(t *testing.T) {
	c := MustLoad()
	assert.Equal(t, types.TierMedium, c.Tier("mystery"))
	assert.Equal(t, "mystery", c.Title("mystery"))
}

func TestFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apps:\n  - id: solo\n    title: Solo\n    tier: large\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.List(), 1)
	assert.Equal(t, types.TierLarge, c.Tier("solo"))
}

func TestUnreadableFileFallsBack(t *testing.T) {
	c, err := Load("/nonexistent/apps.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, c.List(), "unreadable manifest should fall back to embedded default")
}
