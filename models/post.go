package models

import "time"

// Post is a reply inside a thread. ReplyingTo points at another post in the
// same category and thread, or is nil for direct replies to the thread root.
// It must reference a post created strictly earlier, which keeps the reply
// forest acyclic; once set it never changes. CatID is denormalized from the
// parent thread, as in the original schema.
type Post struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CatID              uint      `gorm:"index;not null" json:"cat_id"`
	ThreadID           uint      `gorm:"index;not null" json:"thread_id"`
	AuthorID           uint      `gorm:"index;not null" json:"-"`
	Content            string    `gorm:"type:text" json:"content"`
	CreatedAt          time.Time `json:"creation_date"`
	ReplyingTo         *uint     `gorm:"index" json:"replying_to"`
	AttachmentFilename string    `gorm:"size:255" json:"-"`
	Deleted            bool      `gorm:"not null;default:false" json:"deleted"`
}

// MarkDeleted scrubs content and attachment and flags the post as deleted.
// The row stays in place so replies to it remain reachable in the tree.
func (p *Post) MarkDeleted() (attachment string) {
	if p.Deleted {
		return ""
	}
	p.Deleted = true
	p.Content = ""

	attachment = p.AttachmentFilename
	p.AttachmentFilename = ""
	return attachment
}
