package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxImportRows = 1000

var (
	validStatuses   = map[string]bool{database.StatusTodo: true, database.StatusInProgress: true, database.StatusDone: true}
	validPriorities = map[string]bool{database.PriorityLow: true, database.PriorityMedium: true, database.PriorityHigh: true}
)

// csvRow reads cells by header name; missing columns read as ""
type csvRow struct {
	cols   map[string]int
	record []string
}

func (r csvRow) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// ImportTasksCSV bulk-creates tasks from an uploaded CSV file. Bad rows are
// reported and skipped; the rest are created.
func (h *Handler) ImportTasksCSV(c *gin.Context) {
	tasksFile, _ := c.FormFile("tasks_file")
	if tasksFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tasks_file is required"})
		return
	}

	f, err := tasksFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open tasks file"})
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read tasks header"})
		return
	}
	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := cols["title"]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tasks file must have a title column"})
		return
	}

	user := currentUser(c)
	assignees := make(map[string]*uint)
	result := models.ImportResult{TaskIDs: []uint{}}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			line := 0
			if errors.As(err, &parseErr) {
				line = parseErr.StartLine
			}
			result.Skipped++
			result.Errors = append(result.Errors, models.ImportRowError{Row: line, Error: err.Error()})
			continue
		}
		// quoted fields may span lines, so report where the record starts
		line, _ := reader.FieldPos(0)
		rows++
		if rows > maxImportRows {
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:   line,
				Error: fmt.Sprintf("import stopped, at most %d rows are read per file", maxImportRows),
			})
			break
		}

		task, err := h.taskFromRow(csvRow{cols: cols, record: record}, user, assignees)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, models.ImportRowError{Row: line, Error: err.Error()})
			continue
		}

		err = h.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(task).Error; err != nil {
				return err
			}
			return notifyAssignment(tx, user, task)
		})
		if err != nil {
			h.respondError(c, err)
			return
		}
		result.Created++
		result.TaskIDs = append(result.TaskIDs, task.ID)
	}

	h.logger(c).Info("task import finished",
		"user_id", user.ID,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	c.JSON(http.StatusOK, result)
}

// taskFromRow validates one CSV row. Assignees are looked up by username and
// cached for the rest of the file.
func (h *Handler) taskFromRow(row csvRow, user *database.User, assignees map[string]*uint) (*database.Task, error) {
	title := row.get("title")
	if title == "" {
		return nil, errors.New("title is required")
	}
	if len(title) > 200 {
		return nil, errors.New("title is longer than 200 characters")
	}

	task := &database.Task{
		Title:       title,
		Description: row.get("description"),
		Status:      strings.ToLower(row.get("status")),
		Priority:    strings.ToLower(row.get("priority")),
		CreatedByID: user.ID,
	}
	if task.Status == "" {
		task.Status = database.StatusTodo
	} else if !validStatuses[task.Status] {
		return nil, fmt.Errorf("unknown status %q", task.Status)
	}
	if task.Priority == "" {
		task.Priority = database.PriorityMedium
	} else if !validPriorities[task.Priority] {
		return nil, fmt.Errorf("unknown priority %q", task.Priority)
	}

	if raw := row.get("due_date"); raw != "" {
		due, err := parseDueDate(&raw)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date %q, expected YYYY-MM-DD", raw)
		}
		task.DueDate = due
	}

	if name := row.get("assignee"); name != "" {
		id, cached := assignees[name]
		if !cached {
			var assignee database.User
			err := h.DB.Where("username = ?", name).First(&assignee).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				id = nil
			case err != nil:
				return nil, err
			default:
				id = &assignee.ID
			}
			assignees[name] = id
		}
		if id == nil {
			return nil, fmt.Errorf("unknown assignee %q", name)
		}
		task.AssigneeID = id
	}

	return task, nil
}
