// services/tasks.go
package services

import (
	"errors"
	"fmt"

	"engage-points-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// taskUpdatableFields — id is the only immutable task attribute. Edits to
// points apply to future completions only; awarded points are frozen on the
// assignment at completion time.
var taskUpdatableFields = map[string]bool{
	"title":  true,
	"points": true,
	"url":    true,
	"image":  true,
}

type TaskService struct {
	DB *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{DB: db}
}

type CreateTaskParams struct {
	Title  string
	Points int64
	URL    *string
	Image  *string
}

// CreateTask adds a catalog entry. There is deliberately no delete: the
// catalog is append/edit-only because assignments reference tasks by id.
func (s *TaskService) CreateTask(params CreateTaskParams) (*models.Task, error) {
	if params.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if params.Points < 0 {
		return nil, fmt.Errorf("%w: points must be non-negative", ErrInvalidArgument)
	}

	task := models.Task{
		ID:     uuid.NewString(),
		Title:  params.Title,
		Points: params.Points,
		URL:    params.URL,
		Image:  params.Image,
	}
	if err := s.DB.Create(&task).Error; err != nil {
		return nil, wrapStore(err)
	}
	return &task, nil
}

// ListTasks returns the full catalog, unordered.
func (s *TaskService) ListTasks() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.DB.Find(&tasks).Error; err != nil {
		return nil, wrapStore(err)
	}
	return tasks, nil
}

// GetTask fetches one task by id.
func (s *TaskService) GetTask(taskID string) (*models.Task, error) {
	var task models.Task
	if err := s.DB.Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
		}
		return nil, wrapStore(err)
	}
	return &task, nil
}

// UpdateTaskFields applies a partial update restricted to the allow-list.
func (s *TaskService) UpdateTaskFields(taskID string, fields map[string]interface{}) (*models.Task, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidArgument)
	}
	for key := range fields {
		if !taskUpdatableFields[key] {
			return nil, fmt.Errorf("%w: field %q is not updatable", ErrInvalidArgument, key)
		}
	}
	if points, ok := fields["points"]; ok {
		if !nonNegativeNumber(points) {
			return nil, fmt.Errorf("%w: points must be a non-negative number", ErrInvalidArgument)
		}
	}

	res := s.DB.Model(&models.Task{}).Where("id = ?", taskID).Updates(fields)
	if res.Error != nil {
		return nil, wrapStore(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}

	return s.GetTask(taskID)
}

// nonNegativeNumber accepts the numeric shapes a JSON body or a typed caller
// can produce for the points field.
func nonNegativeNumber(v interface{}) bool {
	switch n := v.(type) {
	case int:
		return n >= 0
	case int64:
		return n >= 0
	case float64:
		return n >= 0
	default:
		return false
	}
}
