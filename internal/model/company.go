package model

import "time"

// Company represents a company registered by a user.
type Company struct {
	ID          string    `json:"id"`
	OwnerEmail  string    `json:"owner_email"`
	Name        string    `json:"name"`
	Website     string    `json:"website,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Task is a to-do item attached to a company.
type Task struct {
	ID          string       `json:"id"`
	CompanyID   string       `json:"company_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Note is a free-text note attached to a company.
type Note struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is an uploaded file attached to a company. Data holds the raw
// file bytes; it is omitted from list responses.
type Document struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Filename  string    `json:"filename"`
	Filesize  int64     `json:"filesize"`
	MimeType  string    `json:"mime_type"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
