package models

// Assignment is the per-(user, task) completion relation. The composite
// unique index is what makes concurrent assignment creation safe: duplicate
// inserts fail on the index instead of silently doubling up.
type Assignment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex:idx_user_task;not null" json:"user_id"`
	TaskID string `gorm:"uniqueIndex:idx_user_task;not null" json:"task_id"`

	Completed bool `gorm:"not null;default:false" json:"completed"`

	// AwardedPoints is set exactly once, on the false→true completion edge,
	// to the task's point value at that moment.
	AwardedPoints int64 `gorm:"not null;default:0" json:"awarded_points"`

	Timestamps
}
