package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/arnavshah/weekly-score-api/pkg/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var taskSortColumns = map[string]string{
	"due":      "due_date",
	"priority": "CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END",
	"created":  "created_at",
	"title":    "title",
	"status":   "CASE status WHEN 'todo' THEN 1 WHEN 'in_progress' THEN 2 ELSE 3 END",
}

// visibleTasks scopes a query to the tasks the user may see
func visibleTasks(db *gorm.DB, user *database.User) *gorm.DB {
	if user.IsAdmin() {
		return db
	}
	return db.Where("(created_by_id = ? OR assignee_id = ?)", user.ID, user.ID)
}

func (h *Handler) findTask(user *database.User, id uint) (*database.Task, error) {
	var task database.Task
	err := visibleTasks(h.DB.Preload("Assignee"), user).First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ErrNotFound{Entity: "task"}
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (h *Handler) checkAssignee(id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := h.DB.Model(&database.User{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &ErrValidation{Field: "assignee_id", Message: "user does not exist"}
	}
	return nil
}

func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, &ErrValidation{Field: "due_date", Message: "expected YYYY-MM-DD"}
	}
	return &t, nil
}

// ListTasks returns the caller's visible tasks with optional filters and sorting
func (h *Handler) ListTasks(c *gin.Context) {
	user := currentUser(c)
	q := visibleTasks(h.DB.Model(&database.Task{}).Preload("Assignee"), user)

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if raw := c.Query("assignee"); raw != "" {
		if raw == "me" {
			q = q.Where("assignee_id = ?", user.ID)
		} else {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				h.respondError(c, &ErrValidation{Field: "assignee", Message: "must be an id or 'me'"})
				return
			}
			q = q.Where("assignee_id = ?", id)
		}
	}

	column, ok := taskSortColumns[c.DefaultQuery("sort", "created")]
	if !ok {
		h.respondError(c, &ErrValidation{Field: "sort", Message: "must be one of due, priority, created, title, status"})
		return
	}
	order := strings.ToLower(c.DefaultQuery("order", "desc"))
	if order != "asc" && order != "desc" {
		h.respondError(c, &ErrValidation{Field: "order", Message: "must be asc or desc"})
		return
	}

	var tasks []database.Task
	if err := q.Order(column + " " + order).Order("id " + order).Find(&tasks).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// CreateTask adds a task owned by the caller
func (h *Handler) CreateTask(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.checkAssignee(req.AssigneeID); err != nil {
		h.respondError(c, err)
		return
	}

	user := currentUser(c)
	task := database.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
		AssigneeID:  req.AssigneeID,
		CreatedByID: user.ID,
	}
	if task.Status == "" {
		task.Status = database.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = database.PriorityMedium
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		return notifyAssignment(tx, user, &task)
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger(c).Info("task created", "task_id", task.ID, "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// notifyAssignment tells the assignee about a task someone else gave them
func notifyAssignment(tx *gorm.DB, by *database.User, task *database.Task) error {
	if task.AssigneeID == nil || *task.AssigneeID == by.ID {
		return nil
	}
	return notify(tx, *task.AssigneeID, "task_assigned",
		fmt.Sprintf("%s assigned you %q", by.Username, task.Title), &task.ID)
}

// GetTask returns one visible task
func (h *Handler) GetTask(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	task, err := h.findTask(currentUser(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// UpdateTask applies a partial update to a visible task
func (h *Handler) UpdateTask(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	task, err := h.findTask(user, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.ClearDueDate {
		updates["due_date"] = nil
	} else if req.DueDate != nil {
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			h.respondError(c, err)
			return
		}
		updates["due_date"] = due
	}

	reassigned := false
	if req.ClearAssignee {
		updates["assignee_id"] = nil
	} else if req.AssigneeID != nil {
		if err := h.checkAssignee(req.AssigneeID); err != nil {
			h.respondError(c, err)
			return
		}
		reassigned = task.AssigneeID == nil || *task.AssigneeID != *req.AssigneeID
		updates["assignee_id"] = *req.AssigneeID
	}

	completed := req.Status != nil && *req.Status == database.StatusDone && task.Status != database.StatusDone

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"task": task})
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
			return err
		}
		var fresh database.Task
		if err := tx.Preload("Assignee").First(&fresh, task.ID).Error; err != nil {
			return err
		}
		*task = fresh
		if reassigned {
			if err := notifyAssignment(tx, user, task); err != nil {
				return err
			}
		}
		if completed && task.CreatedByID != user.ID {
			return notify(tx, task.CreatedByID, "task_completed",
				fmt.Sprintf("%s completed %q", user.Username, task.Title), &task.ID)
		}
		return nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask removes a task. Only its creator or an admin may delete it.
func (h *Handler) DeleteTask(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := currentUser(c)
	task, err := h.findTask(user, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !user.IsAdmin() && task.CreatedByID != user.ID {
		h.respondError(c, &ErrForbidden{Action: "delete a task you did not create"})
		return
	}

	if err := h.DB.Delete(&database.Task{}, task.ID).Error; err != nil {
		h.respondError(c, err)
		return
	}
	h.logger(c).Info("task deleted", "task_id", task.ID, "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}
