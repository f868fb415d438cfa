// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/toodl/toodl/internal/models"
	"github.com/toodl/toodl/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateGroup persists a new group and its initial members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if group.CreatedAt == 0 {
		group.CreatedAt = now
	}
	group.LastUpdated = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_by, currency, created_at, last_updated) VALUES (?, ?, ?, ?, ?, ?)",
		group.ID, group.Name, group.CreatedBy, group.Currency, group.CreatedAt, group.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i := range group.Members {
		m := &group.Members[i]
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if err := insertMember(ctx, tx, group.ID, m); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID, including its full member list.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var createdBy sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, currency, created_at, last_updated FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &createdBy, &group.Currency, &group.CreatedAt, &group.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if createdBy.Valid {
		group.CreatedBy = createdBy.String
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, first_name, email, auth_provider, paypal_me_link FROM members WHERE group_id = ? ORDER BY first_name, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Member
		var email, provider, paypal sql.NullString
		if err := rows.Scan(&m.ID, &m.FirstName, &email, &provider, &paypal); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Email = email.String
		m.AuthProvider = provider.String
		m.PayPalMeLink = paypal.String
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return group, nil
}

// UpdateGroup updates a group's name and currency.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET name = ?, currency = ?, last_updated = ? WHERE id = ?",
		group.Name, group.Currency, time.Now().Unix(), group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteGroup removes a group; members, expenses and settlements cascade.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// ListGroups retrieves all groups without their member lists.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_by, currency, created_at, last_updated FROM groups ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		var createdBy sql.NullString
		if err := rows.Scan(&group.ID, &group.Name, &createdBy, &group.Currency, &group.CreatedAt, &group.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		group.CreatedBy = createdBy.String
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// AddMember adds a member to an existing group.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID string, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchGroup(ctx, tx, groupID); err != nil {
		return err
	}
	if err := insertMember(ctx, tx, groupID, member); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RenameMember changes a member's display name. Members are never mutated
// except for the name.
func (s *SQLiteStore) RenameMember(ctx context.Context, groupID, memberID, firstName string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET first_name = ? WHERE id = ? AND group_id = ?",
		firstName, memberID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to rename member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rename result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	return nil
}

// RemoveMember deletes a member, but only when no expense split, expense
// payer or settlement still references them.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, memberID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var refs int
	err = tx.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM expense_splits es JOIN expenses e ON e.id = es.expense_id
		   WHERE e.group_id = ? AND es.member_id = ?)
		+ (SELECT COUNT(*) FROM expenses WHERE group_id = ? AND paid_by = ?)
		+ (SELECT COUNT(*) FROM settlements WHERE group_id = ? AND (payer_id = ? OR payee_id = ?))`,
		groupID, memberID, groupID, memberID, groupID, memberID, memberID,
	).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count member references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("member %s: %w", memberID, storage.ErrMemberInUse)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM members WHERE id = ? AND group_id = ?", memberID, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err := touchGroup(ctx, tx, groupID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, tx *sql.Tx, groupID string, m *models.Member) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO members (id, group_id, first_name, email, auth_provider, paypal_me_link) VALUES (?, ?, ?, ?, ?, ?)",
		m.ID, groupID, m.FirstName, nullable(m.Email), nullable(m.AuthProvider), nullable(m.PayPalMeLink),
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// touchGroup bumps last_updated and doubles as an existence check.
func touchGroup(ctx context.Context, tx *sql.Tx, groupID string) error {
	res, err := tx.ExecContext(ctx, "UPDATE groups SET last_updated = ? WHERE id = ?", time.Now().Unix(), groupID)
	if err != nil {
		return fmt.Errorf("failed to touch group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check touch result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
