// Package store persists companies, their tracking records, and
// market-research runs. Two backends are provided: Postgres (production)
// and SQLite (development and tests).
package store

import (
	"context"

	"github.com/sells-group/research-hub/internal/model"
)

// Store defines the persistence interface for the application.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, c model.Company) (*model.Company, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetOwnedCompany(ctx context.Context, id, ownerEmail string) (*model.Company, error)
	ListCompanies(ctx context.Context, ownerEmail string) ([]model.Company, error)
	UpdateCompany(ctx context.Context, c model.Company) error
	DeleteCompany(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, t model.Task) (*model.Task, error)
	GetTask(ctx context.Context, companyID, taskID string) (*model.Task, error)
	ListTasks(ctx context.Context, companyID string) ([]model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) error
	DeleteTask(ctx context.Context, companyID, taskID string) error

	// Notes
	CreateNote(ctx context.Context, n model.Note) (*model.Note, error)
	GetNote(ctx context.Context, companyID, noteID string) (*model.Note, error)
	ListNotes(ctx context.Context, companyID string) ([]model.Note, error)
	UpdateNote(ctx context.Context, n model.Note) error
	DeleteNote(ctx context.Context, companyID, noteID string) error

	// Documents. List omits file bytes; Get includes them.
	CreateDocument(ctx context.Context, d model.Document) (*model.Document, error)
	GetDocument(ctx context.Context, companyID, docID string) (*model.Document, error)
	ListDocuments(ctx context.Context, companyID string) ([]model.Document, error)
	DeleteDocument(ctx context.Context, companyID, docID string) error

	// Research runs. The progress log is read and written as raw JSON so
	// that a corrupt log can be recovered by the caller instead of failing
	// every read of the record.
	CreateResearch(ctx context.Context, companyID string, seed model.ProgressLog) (*model.ResearchRecord, error)
	GetResearch(ctx context.Context, id string) (*model.ResearchRecord, error)
	LatestResearch(ctx context.Context, companyID string) (*model.ResearchRecord, error)
	InProgressResearch(ctx context.Context, companyID string) (*model.ResearchRecord, error)
	GetResearchProgress(ctx context.Context, id string) ([]byte, error)
	UpdateResearchProgress(ctx context.Context, id string, progress []byte) error
	CompleteResearch(ctx context.Context, id string, status model.ResearchStatus, outcome *model.ResearchOutcome) error
	SetResearchStatus(ctx context.Context, id string, status model.ResearchStatus) error
	ApplyResearchUpdate(ctx context.Context, id string, upd model.ResearchUpdate) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
