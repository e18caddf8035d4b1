package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/research-hub/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id          TEXT PRIMARY KEY,
	owner_email TEXT NOT NULL,
	name        TEXT NOT NULL,
	website     TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_owner ON companies(owner_email);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'PENDING',
	priority    TEXT NOT NULL DEFAULT 'MEDIUM',
	due_date    DATETIME,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_company ON tasks(company_id);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_company ON notes(company_id);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	filename   TEXT NOT NULL,
	filesize   INTEGER NOT NULL,
	mime_type  TEXT NOT NULL DEFAULT '',
	data       BLOB NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_company ON documents(company_id);

CREATE TABLE IF NOT EXISTS research (
	id                TEXT PRIMARY KEY,
	company_id        TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	status            TEXT NOT NULL DEFAULT 'PENDING',
	progress_log      TEXT NOT NULL DEFAULT '{"progress":[]}',
	search_results    TEXT,
	financial_data    TEXT,
	competitor_data   TEXT,
	executive_summary TEXT NOT NULL DEFAULT '',
	market_position   TEXT NOT NULL DEFAULT '',
	competitors       TEXT,
	opportunities     TEXT,
	threats           TEXT,
	recommendations   TEXT,
	created_at        DATETIME NOT NULL,
	last_updated      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_research_company_created ON research(company_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_research_company_status ON research(company_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

// --- companies ---

func (s *SQLiteStore) CreateCompany(ctx context.Context, c model.Company) (*model.Company, error) {
	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, owner_email, name, website, industry, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerEmail, c.Name, c.Website, c.Industry, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert company")
	}
	return &c, nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_email, name, website, industry, description, created_at, updated_at
		 FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) GetOwnedCompany(ctx context.Context, id, ownerEmail string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_email, name, website, industry, description, created_at, updated_at
		 FROM companies WHERE id = ? AND owner_email = ?`, id, ownerEmail)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get owned company %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, ownerEmail string) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_email, name, website, industry, description, created_at, updated_at
		 FROM companies WHERE owner_email = ? ORDER BY created_at DESC`, ownerEmail)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.OwnerEmail, &c.Name, &c.Website, &c.Industry, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, c model.Company) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, website = ?, industry = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Website, c.Industry, c.Description, time.Now().UTC(), c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", c.ID)
	}
	return checkRowsAffected(res, "company", c.ID)
}

func (s *SQLiteStore) DeleteCompany(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete company %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

// --- tasks ---

func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = model.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = model.TaskPriorityMedium
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, company_id, title, description, status, priority, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CompanyID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert task")
	}
	return &t, nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, companyID, taskID string) (*model.Task, error) {
	var t model.Task
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, title, description, status, priority, due_date, created_at, updated_at
		 FROM tasks WHERE id = ? AND company_id = ?`, taskID, companyID,
	).Scan(&t.ID, &t.CompanyID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get task %s", taskID)
	}
	return &t, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, companyID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, title, description, status, priority, due_date, created_at, updated_at
		 FROM tasks WHERE company_id = ? ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tasks")
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list tasks iterate")
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, t model.Task) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, updated_at = ?
		 WHERE id = ? AND company_id = ?`,
		t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, time.Now().UTC(), t.ID, t.CompanyID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update task %s", t.ID)
	}
	return checkRowsAffected(res, "task", t.ID)
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, companyID, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND company_id = ?`, taskID, companyID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete task %s", taskID)
	}
	return checkRowsAffected(res, "task", taskID)
}

// --- notes ---

func (s *SQLiteStore) CreateNote(ctx context.Context, n model.Note) (*model.Note, error) {
	n.ID = uuid.New().String()
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, company_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.CompanyID, n.Content, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert note")
	}
	return &n, nil
}

func (s *SQLiteStore) GetNote(ctx context.Context, companyID, noteID string) (*model.Note, error) {
	var n model.Note
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, content, created_at, updated_at FROM notes WHERE id = ? AND company_id = ?`,
		noteID, companyID,
	).Scan(&n.ID, &n.CompanyID, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get note %s", noteID)
	}
	return &n, nil
}

func (s *SQLiteStore) ListNotes(ctx context.Context, companyID string) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, content, created_at, updated_at
		 FROM notes WHERE company_id = ? ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list notes")
	}
	defer rows.Close()

	var out []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan note")
		}
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list notes iterate")
}

func (s *SQLiteStore) UpdateNote(ctx context.Context, n model.Note) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET content = ?, updated_at = ? WHERE id = ? AND company_id = ?`,
		n.Content, time.Now().UTC(), n.ID, n.CompanyID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update note %s", n.ID)
	}
	return checkRowsAffected(res, "note", n.ID)
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, companyID, noteID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND company_id = ?`, noteID, companyID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete note %s", noteID)
	}
	return checkRowsAffected(res, "note", noteID)
}

// --- documents ---

func (s *SQLiteStore) CreateDocument(ctx context.Context, d model.Document) (*model.Document, error) {
	d.ID = uuid.New().String()
	d.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, company_id, filename, filesize, mime_type, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CompanyID, d.Filename, d.Filesize, d.MimeType, d.Data, d.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert document")
	}
	return &d, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, companyID, docID string) (*model.Document, error) {
	var d model.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, filename, filesize, mime_type, data, created_at
		 FROM documents WHERE id = ? AND company_id = ?`, docID, companyID,
	).Scan(&d.ID, &d.CompanyID, &d.Filename, &d.Filesize, &d.MimeType, &d.Data, &d.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document %s", docID)
	}
	return &d, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, companyID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, filename, filesize, mime_type, created_at
		 FROM documents WHERE company_id = ? ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Filename, &d.Filesize, &d.MimeType, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, companyID, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND company_id = ?`, docID, companyID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete document %s", docID)
	}
	return checkRowsAffected(res, "document", docID)
}

// --- research ---

func (s *SQLiteStore) CreateResearch(ctx context.Context, companyID string, seed model.ProgressLog) (*model.ResearchRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	logJSON, err := json.Marshal(seed)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal progress log")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO research (id, company_id, status, progress_log, created_at, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, companyID, string(model.ResearchStatusInProgress), string(logJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert research")
	}

	return &model.ResearchRecord{
		ID:          id,
		CompanyID:   companyID,
		Status:      model.ResearchStatusInProgress,
		ProgressLog: seed,
		CreatedAt:   now,
		LastUpdated: now,
	}, nil
}

func (s *SQLiteStore) GetResearch(ctx context.Context, id string) (*model.ResearchRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+researchColumns+` FROM research WHERE id = ?`, id)
	r, err := scanSQLiteResearch(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get research %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) LatestResearch(ctx context.Context, companyID string) (*model.ResearchRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+researchColumns+` FROM research WHERE company_id = ?
		 ORDER BY created_at DESC LIMIT 1`, companyID)
	r, err := scanSQLiteResearch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: latest research")
	}
	return r, nil
}

func (s *SQLiteStore) InProgressResearch(ctx context.Context, companyID string) (*model.ResearchRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+researchColumns+` FROM research WHERE company_id = ? AND status = ?
		 ORDER BY created_at DESC LIMIT 1`, companyID, string(model.ResearchStatusInProgress))
	r, err := scanSQLiteResearch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: in-progress research")
	}
	return r, nil
}

func (s *SQLiteStore) GetResearchProgress(ctx context.Context, id string) ([]byte, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT progress_log FROM research WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get research progress %s", id)
	}
	return []byte(raw), nil
}

func (s *SQLiteStore) UpdateResearchProgress(ctx context.Context, id string, progress []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE research SET progress_log = ?, last_updated = ? WHERE id = ?`,
		string(progress), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update research progress %s", id)
	}
	return checkRowsAffected(res, "research", id)
}

func (s *SQLiteStore) CompleteResearch(ctx context.Context, id string, status model.ResearchStatus, outcome *model.ResearchOutcome) error {
	search, err := marshalNullableText(outcome.SearchResults)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal search results")
	}
	financial, err := marshalNullableText(outcome.FinancialData)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal financial data")
	}
	competitor, err := marshalNullableText(outcome.CompetitorData)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal competitor data")
	}
	competitors, err := marshalNullableItemsText(outcome.Competitors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal competitors")
	}
	opportunities, err := marshalNullableItemsText(outcome.Opportunities)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal opportunities")
	}
	threats, err := marshalNullableItemsText(outcome.Threats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal threats")
	}
	recommendations, err := marshalNullableItemsText(outcome.Recommendations)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal recommendations")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE research SET status = ?, search_results = ?, financial_data = ?,
		 competitor_data = ?, executive_summary = ?, market_position = ?,
		 competitors = ?, opportunities = ?, threats = ?, recommendations = ?,
		 last_updated = ? WHERE id = ?`,
		string(status), search, financial, competitor,
		outcome.ExecutiveSummary, outcome.MarketPosition,
		competitors, opportunities, threats, recommendations,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete research %s", id)
	}
	return checkRowsAffected(res, "research", id)
}

func (s *SQLiteStore) SetResearchStatus(ctx context.Context, id string, status model.ResearchStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE research SET status = ?, last_updated = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set research status %s", id)
	}
	return checkRowsAffected(res, "research", id)
}

func (s *SQLiteStore) ApplyResearchUpdate(ctx context.Context, id string, upd model.ResearchUpdate) error {
	query := `UPDATE research SET last_updated = ?`
	args := []any{time.Now().UTC()}

	if upd.ExecutiveSummary != nil {
		query += `, executive_summary = ?`
		args = append(args, *upd.ExecutiveSummary)
	}
	if upd.MarketPosition != nil {
		query += `, market_position = ?`
		args = append(args, *upd.MarketPosition)
	}
	for _, f := range []struct {
		col string
		v   *[]model.ListItem
	}{
		{"competitors", upd.Competitors},
		{"opportunities", upd.Opportunities},
		{"threats", upd.Threats},
		{"recommendations", upd.Recommendations},
	} {
		if f.v == nil {
			continue
		}
		j, err := json.Marshal(*f.v)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal %s", f.col)
		}
		query += `, ` + f.col + ` = ?`
		args = append(args, string(j))
	}

	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: apply research update %s", id)
	}
	return checkRowsAffected(res, "research", id)
}

// scanSQLiteResearch mirrors scanResearch for database/sql rows, where JSON
// columns come back as nullable text.
func scanSQLiteResearch(row rowScanner) (*model.ResearchRecord, error) {
	var r model.ResearchRecord
	var logRaw string
	var searchRaw, financialRaw, competitorRaw sql.NullString
	var competitorsRaw, opportunitiesRaw, threatsRaw, recommendationsRaw sql.NullString

	err := row.Scan(&r.ID, &r.CompanyID, &r.Status, &logRaw, &searchRaw, &financialRaw,
		&competitorRaw, &r.ExecutiveSummary, &r.MarketPosition, &competitorsRaw,
		&opportunitiesRaw, &threatsRaw, &recommendationsRaw, &r.CreatedAt, &r.LastUpdated)
	if err != nil {
		return nil, err
	}

	if logRaw != "" {
		if err := json.Unmarshal([]byte(logRaw), &r.ProgressLog); err != nil {
			r.ProgressLog = model.ProgressLog{}
		}
	}
	unmarshalNullText(searchRaw, &r.SearchResults)
	unmarshalNullText(financialRaw, &r.FinancialData)
	unmarshalNullText(competitorRaw, &r.CompetitorData)
	unmarshalNullText(competitorsRaw, &r.Competitors)
	unmarshalNullText(opportunitiesRaw, &r.Opportunities)
	unmarshalNullText(threatsRaw, &r.Threats)
	unmarshalNullText(recommendationsRaw, &r.Recommendations)

	return &r, nil
}

func unmarshalNullText[T any](raw sql.NullString, dest *T) {
	if !raw.Valid || raw.String == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw.String), dest)
}

func marshalNullableText(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	j, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(j), nil
}

func marshalNullableItemsText(items []model.ListItem) (any, error) {
	if items == nil {
		return nil, nil
	}
	j, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(j), nil
}
