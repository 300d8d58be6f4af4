package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Binding maps a gesture label to a plugin action.
type Binding struct {
	ID           string
	GestureLabel string
	PluginName   string
	ActionName   string
	Enabled      bool
	CreatedAt    time.Time
}

// BindingRepository provides CRUD operations for gesture-action bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Create inserts a new binding. The gesture label is stored normalized
// (trimmed, lowercased) so lookups match the dispatch policy's comparison.
func (r *BindingRepository) Create(b *Binding) error {
	b.GestureLabel = normalizeLabel(b.GestureLabel)
	b.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO bindings (id, gesture_label, plugin_name, action_name, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.GestureLabel, b.PluginName, b.ActionName, b.Enabled, b.CreatedAt,
	)
	return err
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, gesture_label, plugin_name, action_name, enabled, created_at
		 FROM bindings WHERE id = ?`,
		id,
	))
}

// GetByLabel retrieves a binding by its normalized gesture label.
func (r *BindingRepository) GetByLabel(label string) (*Binding, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, gesture_label, plugin_name, action_name, enabled, created_at
		 FROM bindings WHERE gesture_label = ?`,
		normalizeLabel(label),
	))
}

// List retrieves all bindings ordered by creation time.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT id, gesture_label, plugin_name, action_name, enabled, created_at
		 FROM bindings ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		var enabled int

		err := rows.Scan(&b.ID, &b.GestureLabel, &b.PluginName, &b.ActionName, &enabled, &b.CreatedAt)
		if err != nil {
			return nil, err
		}

		b.Enabled = enabled != 0
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update updates an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	enabled := 0
	if b.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE bindings SET gesture_label = ?, plugin_name = ?, action_name = ?, enabled = ?
		 WHERE id = ?`,
		normalizeLabel(b.GestureLabel), b.PluginName, b.ActionName, enabled, b.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a binding by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *BindingRepository) scanOne(row *sql.Row) (*Binding, error) {
	b := &Binding{}
	var enabled int

	err := row.Scan(&b.ID, &b.GestureLabel, &b.PluginName, &b.ActionName, &enabled, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	b.Enabled = enabled != 0
	return b, nil
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
