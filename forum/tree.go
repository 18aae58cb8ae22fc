package forum

import "github.com/thehouse/forum/models"

// ReplyNode is one rendered slot in a thread's reply forest. Content and
// Author carry separate visibility: a deleted post tombstones its content
// but may still show its author, while a deleted author hides the identity
// without suppressing the content.
type ReplyNode struct {
	Post     models.Post
	Author   Visibility
	Content  Visibility
	Children []ReplyNode
}

// rootKey stands in for a nil ReplyingTo. Post ids start at 1, so 0 can
// never collide with a real parent.
const rootKey uint = 0

// BuildReplyTree reconstructs the parent/child forest from the complete,
// unfiltered set of posts belonging to one thread. Siblings keep the order
// they arrive in (storage order, ascending id); posts are never re-sorted
// by timestamp. Deleted posts participate as tombstones and still anchor
// their children. The walk starts at the thread root and only ever recurses
// into ids present in this thread, so a post whose parent lives elsewhere
// simply never surfaces.
//
// authorDeleted reports whether a given author id belongs to a deleted
// account; unknown ids should report true.
func BuildReplyTree(posts []models.Post, authorDeleted func(id uint) bool) []ReplyNode {
	children := make(map[uint][]models.Post, len(posts))
	for _, post := range posts {
		key := rootKey
		if post.ReplyingTo != nil {
			key = *post.ReplyingTo
		}
		children[key] = append(children[key], post)
	}

	var build func(parent uint) []ReplyNode
	build = func(parent uint) []ReplyNode {
		group := children[parent]
		if len(group) == 0 {
			return nil
		}
		nodes := make([]ReplyNode, 0, len(group))
		for _, post := range group {
			node := ReplyNode{
				Post:    post,
				Author:  Full,
				Content: Full,
			}
			if authorDeleted(post.AuthorID) {
				node.Author = Tombstone
			}
			if post.Deleted {
				node.Content = Tombstone
			}
			node.Children = build(post.ID)
			nodes = append(nodes, node)
		}
		return nodes
	}

	return build(rootKey)
}
