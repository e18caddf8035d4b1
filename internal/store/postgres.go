package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/research-hub/internal/db"
	"github.com/sells-group/research-hub/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests with pgxmock).
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id          TEXT PRIMARY KEY,
	owner_email TEXT NOT NULL,
	name        TEXT NOT NULL,
	website     TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_owner ON companies(owner_email);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'PENDING',
	priority    TEXT NOT NULL DEFAULT 'MEDIUM',
	due_date    TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tasks_company ON tasks(company_id);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notes_company ON notes(company_id);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	filename   TEXT NOT NULL,
	filesize   BIGINT NOT NULL,
	mime_type  TEXT NOT NULL DEFAULT '',
	data       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_company ON documents(company_id);

CREATE TABLE IF NOT EXISTS research (
	id                TEXT PRIMARY KEY,
	company_id        TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	status            TEXT NOT NULL DEFAULT 'PENDING',
	progress_log      JSONB NOT NULL DEFAULT '{"progress":[]}',
	search_results    JSONB,
	financial_data    JSONB,
	competitor_data   JSONB,
	executive_summary TEXT NOT NULL DEFAULT '',
	market_position   TEXT NOT NULL DEFAULT '',
	competitors       JSONB,
	opportunities     JSONB,
	threats           JSONB,
	recommendations   JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_updated      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_research_company_created ON research(company_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_research_company_status ON research(company_id, status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- companies ---

func (s *PostgresStore) CreateCompany(ctx context.Context, c model.Company) (*model.Company, error) {
	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, owner_email, name, website, industry, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.OwnerEmail, c.Name, c.Website, c.Industry, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert company")
	}
	return &c, nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_email, name, website, industry, description, created_at, updated_at
		 FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

func (s *PostgresStore) GetOwnedCompany(ctx context.Context, id, ownerEmail string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_email, name, website, industry, description, created_at, updated_at
		 FROM companies WHERE id = $1 AND owner_email = $2`, id, ownerEmail)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, ownerEmail string) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_email, name, website, industry, description, created_at, updated_at
		 FROM companies WHERE owner_email = $1 ORDER BY created_at DESC`, ownerEmail)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.OwnerEmail, &c.Name, &c.Website, &c.Industry, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c model.Company) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET name = $1, website = $2, industry = $3, description = $4, updated_at = $5
		 WHERE id = $6`,
		c.Name, c.Website, c.Industry, c.Description, time.Now().UTC(), c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("company not found: %s", c.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete company %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("company not found: %s", id)
	}
	return nil
}

// --- tasks ---

func (s *PostgresStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, company_id, title, description, status, priority, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.CompanyID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert task")
	}
	return &t, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, companyID, taskID string) (*model.Task, error) {
	var t model.Task
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, title, description, status, priority, due_date, created_at, updated_at
		 FROM tasks WHERE id = $1 AND company_id = $2`, taskID, companyID,
	).Scan(&t.ID, &t.CompanyID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get task %s", taskID)
	}
	return &t, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, companyID string) ([]model.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, title, description, status, priority, due_date, created_at, updated_at
		 FROM tasks WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tasks")
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list tasks iterate")
}

func (s *PostgresStore) UpdateTask(ctx context.Context, t model.Task) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, updated_at = $6
		 WHERE id = $7 AND company_id = $8`,
		t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, time.Now().UTC(), t.ID, t.CompanyID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update task %s", t.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("task not found: %s", t.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, companyID, taskID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND company_id = $2`, taskID, companyID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete task %s", taskID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("task not found: %s", taskID)
	}
	return nil
}

// --- notes ---

func (s *PostgresStore) CreateNote(ctx context.Context, n model.Note) (*model.Note, error) {
	n.ID = uuid.New().String()
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO notes (id, company_id, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.CompanyID, n.Content, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert note")
	}
	return &n, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, companyID, noteID string) (*model.Note, error) {
	var n model.Note
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, content, created_at, updated_at FROM notes WHERE id = $1 AND company_id = $2`,
		noteID, companyID,
	).Scan(&n.ID, &n.CompanyID, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get note %s", noteID)
	}
	return &n, nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, companyID string) ([]model.Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, content, created_at, updated_at
		 FROM notes WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list notes")
	}
	defer rows.Close()

	var out []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan note")
		}
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list notes iterate")
}

func (s *PostgresStore) UpdateNote(ctx context.Context, n model.Note) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notes SET content = $1, updated_at = $2 WHERE id = $3 AND company_id = $4`,
		n.Content, time.Now().UTC(), n.ID, n.CompanyID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update note %s", n.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("note not found: %s", n.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteNote(ctx context.Context, companyID, noteID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND company_id = $2`, noteID, companyID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete note %s", noteID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("note not found: %s", noteID)
	}
	return nil
}

// --- documents ---

func (s *PostgresStore) CreateDocument(ctx context.Context, d model.Document) (*model.Document, error) {
	d.ID = uuid.New().String()
	d.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, company_id, filename, filesize, mime_type, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.CompanyID, d.Filename, d.Filesize, d.MimeType, d.Data, d.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert document")
	}
	return &d, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, companyID, docID string) (*model.Document, error) {
	var d model.Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, filename, filesize, mime_type, data, created_at
		 FROM documents WHERE id = $1 AND company_id = $2`, docID, companyID,
	).Scan(&d.ID, &d.CompanyID, &d.Filename, &d.Filesize, &d.MimeType, &d.Data, &d.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get document %s", docID)
	}
	return &d, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, companyID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, filename, filesize, mime_type, created_at
		 FROM documents WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Filename, &d.Filesize, &d.MimeType, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, companyID, docID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND company_id = $2`, docID, companyID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete document %s", docID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", docID)
	}
	return nil
}

// --- research ---

const researchColumns = `id, company_id, status, progress_log, search_results, financial_data,
	competitor_data, executive_summary, market_position, competitors, opportunities,
	threats, recommendations, created_at, last_updated`

func (s *PostgresStore) CreateResearch(ctx context.Context, companyID string, seed model.ProgressLog) (*model.ResearchRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	logJSON, err := json.Marshal(seed)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal progress log")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO research (id, company_id, status, progress_log, created_at, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, companyID, string(model.ResearchStatusInProgress), logJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert research")
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

func (s *PostgresStore) GetResearch(ctx context.Context, id string) (*model.ResearchRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+researchColumns+` FROM research WHERE id = $1`, id)
	r, err := scanResearch(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get research %s", id)
	}
	return r, nil
}

func (s *PostgresStore) LatestResearch(ctx context.Context, companyID string) (*model.ResearchRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+researchColumns+` FROM research WHERE company_id = $1
		 ORDER BY created_at DESC LIMIT 1`, companyID)
	r, err := scanResearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: latest research")
	}
	return r, nil
}

func (s *PostgresStore) InProgressResearch(ctx context.Context, companyID string) (*model.ResearchRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+researchColumns+` FROM research WHERE company_id = $1 AND status = $2
		 ORDER BY created_at DESC LIMIT 1`, companyID, string(model.ResearchStatusInProgress))
	r, err := scanResearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: in-progress research")
	}
	return r, nil
}

func (s *PostgresStore) GetResearchProgress(ctx context.Context, id string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT progress_log FROM research WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get research progress %s", id)
	}
	return raw, nil
}

func (s *PostgresStore) UpdateResearchProgress(ctx context.Context, id string, progress []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE research SET progress_log = $1, last_updated = $2 WHERE id = $3`,
		progress, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update research progress %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("research not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CompleteResearch(ctx context.Context, id string, status model.ResearchStatus, outcome *model.ResearchOutcome) error {
	search, err := marshalNullable(outcome.SearchResults)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal search results")
	}
	financial, err := marshalNullable(outcome.FinancialData)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal financial data")
	}
	competitor, err := marshalNullable(outcome.CompetitorData)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal competitor data")
	}
	competitors, err := marshalNullableItems(outcome.Competitors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal competitors")
	}
	opportunities, err := marshalNullableItems(outcome.Opportunities)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal opportunities")
	}
	threats, err := marshalNullableItems(outcome.Threats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal threats")
	}
	recommendations, err := marshalNullableItems(outcome.Recommendations)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recommendations")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE research SET status = $1, search_results = $2, financial_data = $3,
		 competitor_data = $4, executive_summary = $5, market_position = $6,
		 competitors = $7, opportunities = $8, threats = $9, recommendations = $10,
		 last_updated = $11 WHERE id = $12`,
		string(status), search, financial, competitor,
		outcome.ExecutiveSummary, outcome.MarketPosition,
		competitors, opportunities, threats, recommendations,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete research %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("research not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SetResearchStatus(ctx context.Context, id string, status model.ResearchStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE research SET status = $1, last_updated = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set research status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("research not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ApplyResearchUpdate(ctx context.Context, id string, upd model.ResearchUpdate) error {
	query := `UPDATE research SET last_updated = $1`
	args := []any{time.Now().UTC()}
	idx := 2

	addText := func(col string, v *string) {
		if v == nil {
			return
		}
		query += `, ` + col + ` = $` + strconv.Itoa(idx)
		args = append(args, *v)
		idx++
	}
	addItems := func(col string, v *[]model.ListItem) error {
		if v == nil {
			return nil
		}
		j, err := json.Marshal(*v)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal %s", col)
		}
		query += `, ` + col + ` = $` + strconv.Itoa(idx)
		args = append(args, j)
		idx++
		return nil
	}

	addText("executive_summary", upd.ExecutiveSummary)
	addText("market_position", upd.MarketPosition)
	for _, f := range []struct {
		col string
		v   *[]model.ListItem
	}{
		{"competitors", upd.Competitors},
		{"opportunities", upd.Opportunities},
		{"threats", upd.Threats},
		{"recommendations", upd.Recommendations},
	} {
		if err := addItems(f.col, f.v); err != nil {
			return err
		}
	}

	query += ` WHERE id = $` + strconv.Itoa(idx)
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: apply research update %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("research not found: %s", id)
	}
	return nil
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.OwnerEmail, &c.Name, &c.Website, &c.Industry, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanResearch reads a research row. A corrupt progress log is replaced by
// an empty one so a bad write can never make the record unreadable.
func scanResearch(row rowScanner) (*model.ResearchRecord, error) {
	var r model.ResearchRecord
	var logRaw, searchRaw, financialRaw, competitorRaw []byte
	var competitorsRaw, opportunitiesRaw, threatsRaw, recommendationsRaw []byte

	err := row.Scan(&r.ID, &r.CompanyID, &r.Status, &logRaw, &searchRaw, &financialRaw,
		&competitorRaw, &r.ExecutiveSummary, &r.MarketPosition, &competitorsRaw,
		&opportunitiesRaw, &threatsRaw, &recommendationsRaw, &r.CreatedAt, &r.LastUpdated)
	if err != nil {
		return nil, err
	}

	if len(logRaw) > 0 {
		if err := json.Unmarshal(logRaw, &r.ProgressLog); err != nil {
			r.ProgressLog = model.ProgressLog{}
		}
	}
	unmarshalNullable(searchRaw, &r.SearchResults)
	unmarshalNullable(financialRaw, &r.FinancialData)
	unmarshalNullable(competitorRaw, &r.CompetitorData)
	unmarshalNullable(competitorsRaw, &r.Competitors)
	unmarshalNullable(opportunitiesRaw, &r.Opportunities)
	unmarshalNullable(threatsRaw, &r.Threats)
	unmarshalNullable(recommendationsRaw, &r.Recommendations)

	return &r, nil
}

func unmarshalNullable[T any](raw []byte, dest *T) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dest)
}

// marshalNullable returns nil (SQL NULL) for an absent payload.
func marshalNullable(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func marshalNullableItems(items []model.ListItem) ([]byte, error) {
	if items == nil {
		return nil, nil
	}
	return json.Marshal(items)
}
