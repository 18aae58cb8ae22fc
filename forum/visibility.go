// Package forum holds the domain core: soft-delete visibility rules, the
// reply-tree builder, activity feeds, the reply inbox, and cascading
// deletion. Everything except the cascade is a pure transform over rows the
// caller already loaded; nothing here caches state across requests.
package forum

// Visibility describes how a soft-deleted entity (or one owned by a deleted
// actor) is presented.
type Visibility int

const (
	// Full renders the item as-is.
	Full Visibility = iota
	// Tombstone keeps the item's slot but replaces the hidden part with a
	// "[deleted]" marker.
	Tombstone
	// Hidden drops the item from the output entirely.
	Hidden
)

// FeedVisibility decides visibility in listing contexts (category feeds,
// user feeds, the inbox): an item vanishes when either it or its owning
// actor is deleted.
func FeedVisibility(itemDeleted, actorDeleted bool) Visibility {
	if itemDeleted || actorDeleted {
		return Hidden
	}
	return Full
}

// TreeVisibility decides visibility inside a thread's reply tree. Deleted
// items stay in place as tombstones so their replies remain reachable;
// feeds hide the same items outright. The asymmetry is deliberate: a tree
// must stay connected even when interior nodes are scrubbed.
func TreeVisibility(itemDeleted, actorDeleted bool) Visibility {
	if itemDeleted || actorDeleted {
		return Tombstone
	}
	return Full
}
