package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Roles a user can hold
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Task statuses and priorities
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// User represents the users table
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:member" json:"role"`
	Theme        string    `gorm:"not null;default:system" json:"theme"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Task represents the tasks table
type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Status      string     `gorm:"not null;default:todo;index" json:"status"`
	Priority    string     `gorm:"not null;default:medium" json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uint      `gorm:"index" json:"assignee_id"`
	Assignee    *User      `gorm:"constraint:OnDelete:SET NULL" json:"assignee,omitempty"`
	CreatedByID uint       `gorm:"index;not null" json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Notification represents the notifications table
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Kind      string    `gorm:"not null" json:"kind"`
	Message   string    `gorm:"not null" json:"message"`
	TaskID    *uint     `json:"task_id,omitempty"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// WeeklyGoal represents one user's week: leave, overtime and its goal rows
type WeeklyGoal struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	UserID          uint             `gorm:"uniqueIndex:idx_user_week;not null" json:"user_id"`
	WeekStart       string           `gorm:"uniqueIndex:idx_user_week;not null" json:"week_start"`
	LeaveMinutes    float64          `gorm:"default:0" json:"leave_minutes"`
	OvertimeMinutes float64          `gorm:"default:0" json:"overtime_minutes"`
	Planned         []PlannedGoal    `gorm:"constraint:OnDelete:CASCADE" json:"planned"`
	Unplanned       []UnplannedEntry `gorm:"constraint:OnDelete:CASCADE" json:"unplanned"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// PlannedGoal represents the planned_goals table
type PlannedGoal struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	WeeklyGoalID  uint    `gorm:"index;not null" json:"-"`
	Position      int     `json:"-"`
	Name          string  `json:"name"`
	TargetMinutes float64 `json:"target_minutes"`
	ActualMinutes float64 `json:"actual_minutes"`
	IsCompleted   bool    `json:"is_completed"`
}

// UnplannedEntry represents the unplanned_entries table
type UnplannedEntry struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	WeeklyGoalID  uint    `gorm:"index;not null" json:"-"`
	Position      int     `json:"-"`
	Name          string  `json:"name"`
	ActualMinutes float64 `json:"actual_minutes"`
}

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"` // requests per day
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
	RevokedAt  *time.Time `json:"revoked_at"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	WeeksScored  int    `gorm:"default:0" json:"weeks_scored"`
}

// InitDB opens Postgres when databaseURL is set, otherwise the SQLite file at
// dataPath, and migrates the schema.
func InitDB(databaseURL, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gormLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	if databaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
			Logger:      gormLogger,
		})
	} else {
		db, err = gorm.Open(sqlite.Open(dataPath), &gorm.Config{Logger: gormLogger})
		if err == nil {
			// SQLite has a single writer; one connection also keeps ":memory:" databases shared
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				return nil, dbErr
			}
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Task{},
		&Notification{},
		&WeeklyGoal{},
		&PlannedGoal{},
		&UnplannedEntry{},
		&APIKey{},
		&APIUsage{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
