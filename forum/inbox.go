package forum

import "github.com/thehouse/forum/models"

// Inbox returns the posts that are direct replies to any non-deleted post
// authored by userID, excluding the user's replies to themself. posts is
// the full set of non-deleted posts in storage order; the result keeps that
// order, and callers wanting most-recent-first reverse it themselves. The
// inbox is recomputed fresh on every call.
func Inbox(userID uint, posts []models.Post) []models.Post {
	own := make(map[uint]struct{})
	for _, post := range posts {
		if post.AuthorID == userID && !post.Deleted {
			own[post.ID] = struct{}{}
		}
	}

	var replies []models.Post
	for _, post := range posts {
		if post.Deleted || post.AuthorID == userID || post.ReplyingTo == nil {
			continue
		}
		if _, ok := own[*post.ReplyingTo]; ok {
			replies = append(replies, post)
		}
	}
	return replies
}
