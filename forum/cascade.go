package forum

import (
	"gorm.io/gorm"

	"github.com/thehouse/forum/models"
)

// AttachmentRemover disposes of a stored upload. Implementations must
// tolerate files that are already gone; the soft-delete flag is the
// authoritative state, not the file's presence on disk.
type AttachmentRemover func(filename string)

// DeletePost soft-deletes one post. Already-deleted posts are a no-op, not
// an error: two racing cascades may both observe "not yet deleted" and both
// get here.
func DeletePost(tx *gorm.DB, post *models.Post, remove AttachmentRemover) error {
	if post.Deleted {
		return nil
	}
	attachment := post.MarkDeleted()
	if err := tx.Save(post).Error; err != nil {
		return err
	}
	if attachment != "" && remove != nil {
		remove(attachment)
	}
	return nil
}

// DeleteThread soft-deletes a thread and, first, every post in it. Posts go
// before the thread so attachment cleanup runs leaf-first; the flag order
// itself does not matter for correctness.
func DeleteThread(tx *gorm.DB, thread *models.Thread, remove AttachmentRemover) error {
	if thread.Deleted {
		return nil
	}

	var posts []models.Post
	if err := tx.Where("thread_id = ?", thread.ID).Find(&posts).Error; err != nil {
		return err
	}
	for i := range posts {
		if err := DeletePost(tx, &posts[i], remove); err != nil {
			return err
		}
	}

	attachment := thread.MarkDeleted()
	if err := tx.Save(thread).Error; err != nil {
		return err
	}
	if attachment != "" && remove != nil {
		remove(attachment)
	}
	return nil
}

// DeleteCategory soft-deletes a category and everything it transitively
// owns: posts, then threads, then the category itself.
func DeleteCategory(tx *gorm.DB, category *models.Category, remove AttachmentRemover) error {
	if category.Deleted {
		return nil
	}

	var posts []models.Post
	if err := tx.Where("cat_id = ?", category.ID).Find(&posts).Error; err != nil {
		return err
	}
	for i := range posts {
		if err := DeletePost(tx, &posts[i], remove); err != nil {
			return err
		}
	}

	var threads []models.Thread
	if err := tx.Where("cat_id = ?", category.ID).Find(&threads).Error; err != nil {
		return err
	}
	for i := range threads {
		if threads[i].Deleted {
			continue
		}
		attachment := threads[i].MarkDeleted()
		if err := tx.Save(&threads[i]).Error; err != nil {
			return err
		}
		if attachment != "" && remove != nil {
			remove(attachment)
		}
	}

	category.MarkDeleted()
	return tx.Save(category).Error
}

// DeleteUser soft-deletes every post and thread the user owns, then the
// user. A self-deleting actor must also have their session terminated, but
// that happens at the request boundary, not here.
func DeleteUser(tx *gorm.DB, user *models.User, remove AttachmentRemover) error {
	if user.Deleted {
		return nil
	}

	var posts []models.Post
	if err := tx.Where("author_id = ?", user.ID).Find(&posts).Error; err != nil {
		return err
	}
	for i := range posts {
		if err := DeletePost(tx, &posts[i], remove); err != nil {
			return err
		}
	}

	var threads []models.Thread
	if err := tx.Where("creator_id = ?", user.ID).Find(&threads).Error; err != nil {
		return err
	}
	for i := range threads {
		if threads[i].Deleted {
			continue
		}
		attachment := threads[i].MarkDeleted()
		if err := tx.Save(&threads[i]).Error; err != nil {
			return err
		}
		if attachment != "" && remove != nil {
			remove(attachment)
		}
	}

	picture := user.MarkDeleted()
	if err := tx.Save(user).Error; err != nil {
		return err
	}
	if picture != "" && remove != nil {
		remove(picture)
	}
	return nil
}
