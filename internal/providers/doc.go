// Package providers holds outward-facing integrations the desktop
// depends on but that are not game state themselves.
//
// Current providers:
//   - catalog: the application manifest (ids, titles, size tiers)
//   - ai: proxy to the external sentiment and meme services
package providers
