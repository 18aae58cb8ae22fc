package forum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thehouse/forum/models"
)

func treePost(id uint, author uint, replyingTo *uint) models.Post {
	return models.Post{
		ID:         id,
		CatID:      1,
		ThreadID:   1,
		AuthorID:   author,
		Content:    "content",
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
		ReplyingTo: replyingTo,
	}
}

func ptr(id uint) *uint { return &id }

func nobodyDeleted(uint) bool { return false }

func TestBuildReplyTreeKeepsStorageOrder(t *testing.T) {
	// A(1) root, B(2) under A, C(3) root, D(4) under A.
	posts := []models.Post{
		treePost(1, 10, nil),
		treePost(2, 11, ptr(1)),
		treePost(3, 12, nil),
		treePost(4, 13, ptr(1)),
	}

	roots := BuildReplyTree(posts, nobodyDeleted)
	require.Len(t, roots, 2)
	assert.Equal(t, uint(1), roots[0].Post.ID)
	assert.Equal(t, uint(3), roots[1].Post.ID)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, uint(2), roots[0].Children[0].Post.ID)
	assert.Equal(t, uint(4), roots[0].Children[1].Post.ID)
	assert.Empty(t, roots[1].Children)
}

func TestBuildReplyTreeDeletedParentAnchorsChildren(t *testing.T) {
	parent := treePost(1, 10, nil)
	parent.Deleted = true
	posts := []models.Post{
		parent,
		treePost(2, 11, ptr(1)),
		treePost(3, 12, ptr(2)),
	}

	roots := BuildReplyTree(posts, nobodyDeleted)
	require.Len(t, roots, 1)
	assert.Equal(t, Tombstone, roots[0].Content)
	assert.Equal(t, Full, roots[0].Author)

	// The subtree under the tombstone survives intact.
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, uint(2), roots[0].Children[0].Post.ID)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, uint(3), roots[0].Children[0].Children[0].Post.ID)
}

func TestBuildReplyTreeDeletedAuthorTombstonesIdentityOnly(t *testing.T) {
	posts := []models.Post{
		treePost(1, 10, nil),
		treePost(2, 99, ptr(1)),
	}
	deleted := func(id uint) bool { return id == 99 }

	roots := BuildReplyTree(posts, deleted)
	require.Len(t, roots, 1)
	child := roots[0].Children[0]
	assert.Equal(t, Tombstone, child.Author)
	assert.Equal(t, Full, child.Content)
}

func TestBuildReplyTreeIncludesEveryReachablePost(t *testing.T) {
	posts := []models.Post{
		treePost(1, 10, nil),
		treePost(2, 10, ptr(1)),
		treePost(3, 10, ptr(1)),
		treePost(4, 10, ptr(3)),
		treePost(5, 10, nil),
	}

	var count func(nodes []ReplyNode) int
	count = func(nodes []ReplyNode) int {
		total := len(nodes)
		for _, n := range nodes {
			total += count(n.Children)
		}
		return total
	}

	roots := BuildReplyTree(posts, nobodyDeleted)
	assert.Equal(t, len(posts), count(roots))
}

func TestBuildReplyTreeIgnoresForeignParents(t *testing.T) {
	// A parent id that does not exist in this thread's post set leaves the
	// child unreachable rather than corrupting the forest.
	posts := []models.Post{
		treePost(1, 10, nil),
		treePost(2, 10, ptr(777)),
	}

	roots := BuildReplyTree(posts, nobodyDeleted)
	require.Len(t, roots, 1)
	assert.Equal(t, uint(1), roots[0].Post.ID)
	assert.Empty(t, roots[0].Children)
}

func TestBuildReplyTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildReplyTree(nil, nobodyDeleted))
}
