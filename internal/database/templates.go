package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/roomforge/internal/catalog"
	"github.com/lawnchairsociety/roomforge/internal/logger"
	"github.com/lawnchairsociety/roomforge/internal/room"
)

// ErrTemplateNotFound is returned when a template lookup fails.
var ErrTemplateNotFound = errors.New("template not found")

// ErrTemplateExists is returned when inserting a template id that is already stored.
var ErrTemplateExists = errors.New("template already exists")

// StoredTemplate is a room template row.
type StoredTemplate struct {
	room.Template
	ImportedAt time.Time
}

const templateColumns = "id, name, top, bottom, left_door, right_door, doorway_count"

// InsertTemplate stores a new template. It returns ErrTemplateExists when the
// id is taken.
func (d *Database) InsertTemplate(t room.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}

	_, err := d.db.Exec(
		d.qb.Build("INSERT INTO room_templates ("+templateColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)"),
		t.ID, t.Name, t.Doorways.Top, t.Doorways.Bottom, t.Doorways.Left, t.Doorways.Right, t.DoorwayCount,
	)
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrTemplateExists, t.ID)
		}
		return fmt.Errorf("failed to insert template %s: %w", t.ID, err)
	}
	return nil
}

// SaveTemplates inserts or updates every template in one transaction.
func (d *Database) SaveTemplates(templates []room.Template) error {
	for i := range templates {
		if err := templates[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(d.qb.Build(
		"INSERT INTO room_templates (" + templateColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?) " +
			"ON CONFLICT (id) DO UPDATE SET name = excluded.name, top = excluded.top, bottom = excluded.bottom, " +
			"left_door = excluded.left_door, right_door = excluded.right_door, doorway_count = excluded.doorway_count, " +
			"imported_at = CURRENT_TIMESTAMP"))
	if err != nil {
		return fmt.Errorf("failed to prepare template upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range templates {
		if _, err := stmt.Exec(t.ID, t.Name, t.Doorways.Top, t.Doorways.Bottom, t.Doorways.Left, t.Doorways.Right, t.DoorwayCount); err != nil {
			return fmt.Errorf("failed to save template %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit templates: %w", err)
	}

	logger.Info("Room templates saved", "count", len(templates))
	return nil
}

// GetTemplate retrieves one template by id.
func (d *Database) GetTemplate(id string) (*StoredTemplate, error) {
	row := d.db.QueryRow(
		d.qb.Build("SELECT "+templateColumns+", imported_at FROM room_templates WHERE id = ?"),
		id,
	)

	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", id, err)
	}
	return t, nil
}

// LoadTemplates returns every stored template ordered by id.
func (d *Database) LoadTemplates() ([]StoredTemplate, error) {
	rows, err := d.db.Query("SELECT " + templateColumns + ", imported_at FROM room_templates ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []StoredTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *t)
	}

	return templates, rows.Err()
}

// LoadCatalog builds a catalog from the stored templates.
func (d *Database) LoadCatalog() (*catalog.Catalog, error) {
	stored, err := d.LoadTemplates()
	if err != nil {
		return nil, err
	}

	templates := make([]room.Template, len(stored))
	for i, st := range stored {
		templates[i] = st.Template
	}
	return catalog.New(templates)
}

// CountTemplates returns the number of stored templates.
func (d *Database) CountTemplates() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM room_templates").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return count, nil
}

// DeleteTemplate removes one template.
func (d *Database) DeleteTemplate(id string) error {
	result, err := d.db.Exec(d.qb.Build("DELETE FROM room_templates WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion of template %s: %w", id, err)
	}
	if affected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// DeleteAllTemplates empties the catalog store.
func (d *Database) DeleteAllTemplates() error {
	if _, err := d.db.Exec("DELETE FROM room_templates"); err != nil {
		return fmt.Errorf("failed to delete templates: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner) (*StoredTemplate, error) {
	var t StoredTemplate
	var importedAt sql.NullTime

	err := s.Scan(
		&t.ID, &t.Name,
		&t.Doorways.Top, &t.Doorways.Bottom, &t.Doorways.Left, &t.Doorways.Right,
		&t.DoorwayCount, &importedAt,
	)
	if err != nil {
		return nil, err
	}
	if importedAt.Valid {
		t.ImportedAt = importedAt.Time
	}
	return &t, nil
}
