package ports

import (
	"context"
	"easyprofile/internal/types"
)

// ProfileStore persists profile snapshots. Values handed to Save are typed Go values; values
// returned by Load may be generic decoded forms (json.RawMessage, YAML scalars) that the
// caller re-decodes per category.
type ProfileStore interface {
	// Load returns the stored snapshot for profileID.
	// MUST return types.ErrNotFound if nothing was stored for the profile.
	Load(ctx context.Context, profileID string) (types.Snapshot, error)

	// Save writes the given categories of snap, or every category of snap when categories is
	// nil. A listed category may be replaced as a whole, so callers pass complete categories.
	Save(ctx context.Context, snap types.Snapshot, categories []string) error

	Delete(ctx context.Context, profileID string) error

	// ClearAll purges all stored profiles. Used in tests only.
	ClearAll(ctx context.Context) error
}

// ProfileLister is implemented by stores that can enumerate stored profile ids.
type ProfileLister interface {
	ListProfiles(ctx context.Context) ([]string, error)
}
