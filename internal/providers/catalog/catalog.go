// Package catalog maps app types to their desktop defaults.
//
// The catalog is a YAML manifest (an embedded default, overridable
// with an on-disk file) describing each launchable app: display title,
// icon, and which size tier its windows open at. The window manager
// consults it on every open; unknown app ids fall back to the medium
// tier so a stale client can never wedge the desktop.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agencyrpg/backend/internal/shared/types"
)

//go:embed apps.yaml
var defaultManifest []byte

// Entry describes one launchable app.
type Entry struct {
	ID    string         `yaml:"id" json:"id"`
	Title string         `yaml:"title" json:"title"`
	Icon  string         `yaml:"icon" json:"icon"`
	Tier  types.SizeTier `yaml:"tier" json:"tier"`
}

type manifest struct {
	Apps []Entry `yaml:"apps"`
}

// Catalog resolves app ids to catalog entries.
type Catalog struct {
	entries map[string]Entry
	order   []string
}

// Load builds a catalog from the manifest at path, or from the
// embedded default when path is empty or unreadable.
func Load(path string) (*Catalog, error) {
	data := defaultManifest
	if path != "" {
		if file, err := os.ReadFile(path); err == nil {
			data = file
		}
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse app manifest: %w", err)
	}

	c := &Catalog{entries: make(map[string]Entry, len(m.Apps))}
	for _, entry := range m.Apps {
		c.entries[entry.ID] = entry
		c.order = append(c.order, entry.ID)
	}
	return c, nil
}

// MustLoad loads the embedded default manifest and panics on failure.
// The embedded manifest is validated at build time by tests, so a
// failure here is a programming error.
func MustLoad() *Catalog {
	c, err := Load("")
	if err != nil {
		panic(err)
	}
	return c
}

// Tier returns the size tier for an app id, defaulting to medium.
func (c *Catalog) Tier(appID string) types.SizeTier {
	if entry, ok := c.entries[appID]; ok && entry.Tier != "" {
		return entry.Tier
	}
	return types.TierMedium
}

// Title returns the display title for an app id, defaulting to the id.
func (c *Catalog) Title(appID string) string {
	if entry, ok := c.entries[appID]; ok && entry.Title != "" {
		return entry.Title
	}
	return appID
}

// Get returns the full entry for an app id.
func (c *Catalog) Get(appID string) (Entry, bool) {
	entry, ok := c.entries[appID]
	return entry, ok
}

// List returns all entries in manifest order.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, appID := range c.order {
		out = append(out, c.entries[appID])
	}
	return out
}
