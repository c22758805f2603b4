package models

// Task is a catalog entry users can complete for points. Points here are the
// reward value at completion time; already-awarded points are frozen on the
// assignment, so editing a task never rewrites history.
type Task struct {
	ID     string  `gorm:"primaryKey;type:uuid" json:"id"`
	Title  string  `gorm:"not null" json:"title"`
	Points int64   `gorm:"not null;default:0" json:"points"`
	URL    *string `json:"url,omitempty"`
	Image  *string `json:"image,omitempty"`

	Timestamps
}
