// services/assignments.go
package services

import (
	"errors"
	"fmt"

	"engage-points-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentService owns the per-(user, task) ledger. It is the only code
// path that mutates User.Points.
type AssignmentService struct {
	DB *gorm.DB
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{DB: db}
}

// UserTask is the joined catalog + completion view returned to clients.
type UserTask struct {
	TaskID        string  `json:"task_id" gorm:"column:task_id"`
	Title         string  `json:"title"`
	Points        int64   `json:"points"`
	URL           *string `json:"url,omitempty"`
	Image         *string `json:"image,omitempty"`
	Completed     bool    `json:"completed"`
	AwardedPoints int64   `json:"awarded_points"`
}

// AssignTask creates the (user, task) pair with completed=false. If the pair
// already exists the existing row is returned together with
// ErrAlreadyAssigned; callers usually treat that as success.
func (s *AssignmentService) AssignTask(tgID, taskID string) (*models.Assignment, error) {
	user, err := s.findUser(s.DB, tgID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.Model(&models.Task{}).Where("id = ?", taskID).Count(&count).Error; err != nil {
		return nil, wrapStore(err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}

	assignment := models.Assignment{
		ID:     uuid.NewString(),
		UserID: user.ID,
		TaskID: taskID,
	}
	if err := s.DB.Create(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := s.findAssignment(s.DB, user.ID, taskID)
			if ferr != nil {
				return nil, ferr
			}
			return existing, ErrAlreadyAssigned
		}
		return nil, wrapStore(err)
	}
	return &assignment, nil
}

// AssignAllCatalogTasks gives the user every catalog task they do not hold
// yet and returns the newly created assignments. Idempotent: a second call
// with an unchanged catalog creates nothing. The held set is a hash lookup,
// O(existing + catalog), and each insert goes through ON CONFLICT DO NOTHING
// on the (user_id, task_id) index so a concurrent assign for the same user
// can never double-insert.
func (s *AssignmentService) AssignAllCatalogTasks(tgID string) ([]models.Assignment, error) {
	var created []models.Assignment

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, err := s.findUser(tx, tgID)
		if err != nil {
			return err
		}

		var catalog []models.Task
		if err := tx.Find(&catalog).Error; err != nil {
			return wrapStore(err)
		}

		var heldIDs []string
		if err := tx.Model(&models.Assignment{}).Where("user_id = ?", user.ID).Pluck("task_id", &heldIDs).Error; err != nil {
			return wrapStore(err)
		}
		held := make(map[string]bool, len(heldIDs))
		for _, id := range heldIDs {
			held[id] = true
		}

		for _, task := range catalog {
			if held[task.ID] {
				continue
			}
			assignment := models.Assignment{
				ID:     uuid.NewString(),
				UserID: user.ID,
				TaskID: task.ID,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&assignment)
			if res.Error != nil {
				return wrapStore(res.Error)
			}
			if res.RowsAffected > 0 {
				created = append(created, assignment)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CompleteTask flips the assignment false→true and credits the user in one
// transaction. The flip is a conditional update keyed on completed=false, so
// only one of any number of concurrent calls wins the edge; losers see
// RowsAffected==0 and return the already-completed row with no credit. The
// point credit is a single "points = points + ?" expression, never a
// read-modify-write.
func (s *AssignmentService) CompleteTask(tgID, taskID string) (*models.Assignment, error) {
	var result *models.Assignment

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, err := s.findUser(tx, tgID)
		if err != nil {
			return err
		}

		var task models.Task
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
			}
			return wrapStore(err)
		}

		res := tx.Model(&models.Assignment{}).
			Where("user_id = ? AND task_id = ? AND completed = ?", user.ID, taskID, false).
			Updates(map[string]interface{}{
				"completed":      true,
				"awarded_points": task.Points,
			})
		if res.Error != nil {
			return wrapStore(res.Error)
		}

		if res.RowsAffected > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				UpdateColumn("points", gorm.Expr("points + ?", task.Points)).Error; err != nil {
				return wrapStore(err)
			}
		}

		assignment, err := s.findAssignment(tx, user.ID, taskID)
		if err != nil {
			return err
		}
		result = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListUserTasks returns the user's assignments joined with task metadata.
func (s *AssignmentService) ListUserTasks(tgID string) ([]UserTask, error) {
	user, err := s.findUser(s.DB, tgID)
	if err != nil {
		return nil, err
	}

	var rows []UserTask
	err = s.DB.Model(&models.Assignment{}).
		Select("tasks.id AS task_id, tasks.title, tasks.points, tasks.url, tasks.image, assignments.completed, assignments.awarded_points").
		Joins("JOIN tasks ON tasks.id = assignments.task_id").
		Where("assignments.user_id = ?", user.ID).
		Order("assignments.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStore(err)
	}
	return rows, nil
}

func (s *AssignmentService) findUser(tx *gorm.DB, tgID string) (*models.User, error) {
	var user models.User
	if err := tx.Where("tg_id = ?", tgID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, tgID)
		}
		return nil, wrapStore(err)
	}
	return &user, nil
}

func (s *AssignmentService) findAssignment(tx *gorm.DB, userID, taskID string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := tx.Where("user_id = ? AND task_id = ?", userID, taskID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assignment (%s, %s)", ErrNotFound, userID, taskID)
		}
		return nil, wrapStore(err)
	}
	return &assignment, nil
}
