package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/AbdouB/memorybox/internal/models"
	"github.com/AbdouB/memorybox/internal/redact"
)

// ErrConstraint reports a store-level uniqueness violation on write.
// Seeing it on create means the id generator or schema is defective.
var ErrConstraint = errors.New("constraint violation")

// CommandRepository handles command and tag database operations
type CommandRepository struct {
	db *DB
}

// NewCommandRepository creates a new command repository
func NewCommandRepository(db *DB) *CommandRepository {
	return &CommandRepository{db: db}
}

// commandRow mirrors the commands table. Timestamps stay as stored text so
// unparseable values can be treated as corrupt rather than failing the scan.
type commandRow struct {
	ID          string  `db:"id"`
	Command     string  `db:"command"`
	Description string  `db:"description"`
	OS          *string `db:"os"`
	ProjectType *string `db:"project_type"`
	Context     *string `db:"context"`
	Category    *string `db:"category"`
	Status      *string `db:"status"`
	CreatedAt   string  `db:"created_at"`
	LastUsed    *string `db:"last_used"`
	UseCount    int     `db:"use_count"`
}

func (row commandRow) toModel(tags []string) (*models.Command, error) {
	createdAt, err := models.ParseTime(row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at for command %s: %w", row.ID, err)
	}

	var lastUsed *time.Time
	if row.LastUsed != nil {
		t, err := models.ParseTime(*row.LastUsed)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_used for command %s: %w", row.ID, err)
		}
		lastUsed = &t
	}

	if tags == nil {
		tags = []string{}
	}

	return &models.Command{
		ID:          row.ID,
		Command:     row.Command,
		Description: row.Description,
		Tags:        tags,
		OS:          row.OS,
		ProjectType: row.ProjectType,
		Context:     row.Context,
		Category:    row.Category,
		Status:      row.Status,
		CreatedAt:   createdAt,
		LastUsed:    lastUsed,
		UseCount:    row.UseCount,
	}, nil
}

// Create redacts and stores a new command, upserting and linking its tags
// in the same transaction. Returns the generated command id.
func (r *CommandRepository) Create(input *models.CommandInput) (string, error) {
	id := uuid.New().String()

	// Always strip secrets from the command before storing
	commandText := redact.Redact(input.Command)

	tx, err := r.db.Beginx()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO commands (
			id, command, description, os, project_type, context,
			category, status, created_at, use_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`
	if _, err := tx.Exec(query,
		id,
		commandText,
		input.Description,
		input.OS,
		input.ProjectType,
		input.Context,
		input.Category,
		input.Status,
		models.FormatTime(time.Now()),
	); err != nil {
		if isConstraintErr(err) {
			return "", fmt.Errorf("%w: command id %s: %v", ErrConstraint, id, err)
		}
		return "", fmt.Errorf("failed to insert command: %w", err)
	}

	for _, tag := range dedupeTags(input.Tags) {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
			return "", fmt.Errorf("failed to upsert tag %q: %w", tag, err)
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO command_tags (command_id, tag_name) VALUES (?, ?)`, id, tag); err != nil {
			return "", fmt.Errorf("failed to link tag %q: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit command: %w", err)
	}

	return id, nil
}

// Get fetches a command by id, incrementing its use counter and stamping
// last_used in the same transaction. Returns nil when no record exists.
// Search and list paths never go through here.
func (r *CommandRepository) Get(id string) (*models.Command, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE commands SET use_count = use_count + 1, last_used = ? WHERE id = ?`,
		models.FormatTime(time.Now()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update usage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	var row commandRow
	if err := tx.Get(&row, `SELECT * FROM commands WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to read command: %w", err)
	}

	var tags []string
	if err := tx.Select(&tags, `SELECT tag_name FROM command_tags WHERE command_id = ? ORDER BY tag_name`, id); err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit usage update: %w", err)
	}

	cmd, err := row.toModel(tags)
	if err != nil {
		// Corrupt timestamps read as absent
		return nil, nil
	}
	return cmd, nil
}

// Delete removes a command and its tag links. Tag entities stay behind even
// when orphaned. Reports whether a record existed.
func (r *CommandRepository) Delete(id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM commands WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete command: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// ListTags returns all distinct tag names in lexicographic order.
func (r *CommandRepository) ListTags() ([]string, error) {
	tags := []string{}
	if err := r.db.Select(&tags, `SELECT name FROM tags ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// ListCategories returns all distinct non-empty categories in lexicographic order.
func (r *CommandRepository) ListCategories() ([]string, error) {
	categories := []string{}
	query := `SELECT DISTINCT category FROM commands WHERE category IS NOT NULL AND category != '' ORDER BY category`
	if err := r.db.Select(&categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Filter narrows the structural candidate fetch. Zero values mean no filter.
type Filter struct {
	Query       string // exact substring over command/description/context
	OS          string
	ProjectType string
	Category    string
	Tags        []string // candidate tag set must contain every entry
}

// Candidates returns commands matching every supplied structural filter,
// ordered by use_count descending then created_at descending. Rows with
// unparseable timestamps are skipped. Usage counters are not touched.
func (r *CommandRepository) Candidates(f Filter) ([]*models.Command, error) {
	query := `SELECT * FROM commands WHERE 1=1`
	var args []interface{}

	// Text search (only for exact matching; fuzzy scoring happens upstream
	// on the full structurally-eligible set)
	if f.Query != "" {
		query += ` AND (instr(command, ?) > 0 OR instr(description, ?) > 0 OR (context IS NOT NULL AND instr(context, ?) > 0))`
		args = append(args, f.Query, f.Query, f.Query)
	}

	if f.OS != "" {
		query += ` AND os = ?`
		args = append(args, f.OS)
	}
	if f.ProjectType != "" {
		query += ` AND project_type = ?`
		args = append(args, f.ProjectType)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}

	// Tag matching: the command must carry every filter tag
	if tags := dedupeTags(f.Tags); len(tags) > 0 {
		sub, inArgs, err := sqlx.In(
			`(SELECT COUNT(DISTINCT tag_name) FROM command_tags WHERE command_id = commands.id AND tag_name IN (?))`,
			tags,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to expand tag filter: %w", err)
		}
		query += ` AND ` + sub + ` = ?`
		args = append(args, inArgs...)
		args = append(args, len(tags))
	}

	query += ` ORDER BY use_count DESC, created_at DESC`

	var rows []commandRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	if len(rows) == 0 {
		return []*models.Command{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	tagsByID, err := r.tagsFor(ids)
	if err != nil {
		return nil, err
	}

	commands := make([]*models.Command, 0, len(rows))
	for _, row := range rows {
		cmd, err := row.toModel(tagsByID[row.ID])
		if err != nil {
			// Skip records with invalid timestamps
			continue
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// tagsFor loads the tag sets for a batch of command ids.
func (r *CommandRepository) tagsFor(ids []string) (map[string][]string, error) {
	query, args, err := sqlx.In(
		`SELECT command_id, tag_name FROM command_tags WHERE command_id IN (?) ORDER BY tag_name`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expand tag lookup: %w", err)
	}

	var links []struct {
		CommandID string `db:"command_id"`
		TagName   string `db:"tag_name"`
	}
	if err := r.db.Select(&links, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	tagsByID := make(map[string][]string, len(ids))
	for _, link := range links {
		tagsByID[link.CommandID] = append(tagsByID[link.CommandID], link.TagName)
	}
	return tagsByID, nil
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
