// Package games holds the free-game data model together with the title
// normalisation and announcement assembly used by the publish pipeline.
package games

// CanonicalKey identifies one game across sources and runs.
type CanonicalKey string

// RawCandidate is a single free-game record as produced by a source adapter.
type RawCandidate struct {
	SourceTitle         string
	SourceDescription   string
	SourceURL           string
	SourcePlatformLabel string
	RawEnd              string
	RawCategories       []string

	Source             string   // adapter name
	DateLayouts        []string // formats RawEnd may use
	DefaultDescription string   // used when SourceDescription is empty
	ImageURL           string
}

// HasIdentity reports whether the candidate carries both a title and a link.
func (c RawCandidate) HasIdentity() bool {
	return trimmed(c.SourceTitle) != "" && trimmed(c.SourceURL) != ""
}

// Announcement is a ready-to-publish record for one newly discovered free game.
type Announcement struct {
	ID          CanonicalKey
	Title       string
	Description string
	Genre       string
	Platform    string
	ExpiryText  string
	URL         string
	ImageURL    string
}
