package services

import (
	"fmt"
	"strings"
	"testing"

	"engage-points-system/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a uniquely named in-memory SQLite database so tests stay
// isolated from each other. TranslateError mirrors production: uniqueness
// violations surface as gorm.ErrDuplicatedKey on both drivers.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// A single connection serializes concurrent test writers; in-memory
	// SQLite would otherwise throw busy errors where Postgres just queues.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.Assignment{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func mustCreateUser(t *testing.T, svc *UserService, name, tgID string, invitedBy *string) *models.User {
	t.Helper()
	user, err := svc.CreateUser(CreateUserParams{Name: name, TgID: tgID, InvitedBy: invitedBy})
	if err != nil {
		t.Fatalf("create user %s: %v", tgID, err)
	}
	return user
}

func mustCreateTask(t *testing.T, svc *TaskService, title string, points int64) *models.Task {
	t.Helper()
	task, err := svc.CreateTask(CreateTaskParams{Title: title, Points: points})
	if err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return task
}
