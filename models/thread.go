package models

import "time"

// Thread is a topic inside a category. Views is a raw hit counter bumped on
// every detail fetch; lost updates under concurrent increments are tolerated.
type Thread struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CatID              uint      `gorm:"index;not null" json:"cat_id"`
	Title              string    `gorm:"size:255;not null" json:"title"`
	CreatorID          uint      `gorm:"index;not null" json:"-"`
	Content            string    `gorm:"type:text" json:"content"`
	AttachmentFilename string    `gorm:"size:255" json:"-"`
	CreatedAt          time.Time `json:"creation_date"`
	Views              uint      `gorm:"not null;default:0" json:"views"`
	Deleted            bool      `gorm:"not null;default:false" json:"deleted"`
}

// MarkDeleted scrubs title, content, and attachment and flags the thread as
// deleted. Returns the old attachment filename for file cleanup.
func (t *Thread) MarkDeleted() (attachment string) {
	if t.Deleted {
		return ""
	}
	t.Deleted = true
	t.Title = ""
	t.Content = ""

	attachment = t.AttachmentFilename
	t.AttachmentFilename = ""
	return attachment
}
