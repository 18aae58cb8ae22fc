package forum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedVisibility(t *testing.T) {
	assert.Equal(t, Full, FeedVisibility(false, false))
	assert.Equal(t, Hidden, FeedVisibility(true, false))
	assert.Equal(t, Hidden, FeedVisibility(false, true))
	assert.Equal(t, Hidden, FeedVisibility(true, true))
}

func TestTreeVisibility(t *testing.T) {
	assert.Equal(t, Full, TreeVisibility(false, false))
	assert.Equal(t, Tombstone, TreeVisibility(true, false))
	assert.Equal(t, Tombstone, TreeVisibility(false, true))
	assert.Equal(t, Tombstone, TreeVisibility(true, true))
}

// Feeds drop what trees keep: the same deleted item must vanish from one
// context and tombstone in the other.
func TestFeedAndTreeDisagreeOnDeleted(t *testing.T) {
	assert.Equal(t, Hidden, FeedVisibility(true, false))
	assert.Equal(t, Tombstone, TreeVisibility(true, false))
}
