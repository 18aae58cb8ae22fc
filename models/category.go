package models

// Category is a board grouping threads. Title uniqueness is permanent:
// a deleted category keeps its title so it can never be reused.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:20;not null;uniqueIndex" json:"title"`
	Description string `gorm:"size:150;not null" json:"description"`
	Deleted     bool   `gorm:"not null;default:false" json:"deleted"`
}

// MarkDeleted empties the description and flags the category as deleted.
func (c *Category) MarkDeleted() {
	if c.Deleted {
		return
	}
	c.Deleted = true
	c.Description = ""
}
