package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toodl/toodl/internal/models"
	"github.com/toodl/toodl/internal/storage"
)

// CreateSettlement persists a new settlement. New settlements always start
// pending; confirmation is a separate, payee-only transition.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Status == "" {
		settlement.Status = models.SettlementPending
	}
	if settlement.Method == "" {
		settlement.Method = models.MethodOther
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, payer_id, payee_id, amount, amount_minor, method, note, status, created_at, confirmed_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.PayerID, settlement.PayeeID,
		settlement.Amount, settlement.AmountMinor, string(settlement.Method), nullable(settlement.Note),
		string(settlement.Status), settlement.CreatedAt, nullableInt(settlement.ConfirmedAt), nullable(settlement.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, payee_id, amount, amount_minor, method, note, status, created_at, confirmed_at, created_by
		 FROM settlements WHERE id = ?`,
		settlementID,
	)
	settlement, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ConfirmSettlement flips a pending settlement to confirmed. Confirming a
// settlement that is already confirmed is not an error (idempotent).
func (s *SQLiteStore) ConfirmSettlement(ctx context.Context, settlementID string, confirmedAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET status = ?, confirmed_at = ? WHERE id = ? AND status = ?",
		string(models.SettlementConfirmed), confirmedAt, settlementID, string(models.SettlementPending),
	)
	if err != nil {
		return fmt.Errorf("failed to confirm settlement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check confirm result: %w", err)
	}
	if n == 0 {
		// Distinguish missing from already-confirmed.
		if _, err := s.GetSettlement(ctx, settlementID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteSettlement removes a settlement by ID.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, settlementID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", settlementID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, payer_id, payee_id, amount, amount_minor, method, note, status, created_at, confirmed_at, created_by
		 FROM settlements WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var method, note, status, createdBy sql.NullString
	var confirmedAt sql.NullInt64

	err := row.Scan(&settlement.ID, &settlement.GroupID, &settlement.PayerID, &settlement.PayeeID,
		&settlement.Amount, &settlement.AmountMinor, &method, &note, &status,
		&settlement.CreatedAt, &confirmedAt, &createdBy)
	if err != nil {
		return nil, err
	}

	settlement.Method = models.SettlementMethod(method.String)
	settlement.Note = note.String
	settlement.Status = models.SettlementStatus(status.String)
	settlement.ConfirmedAt = confirmedAt.Int64
	settlement.CreatedBy = createdBy.String
	return settlement, nil
}

func nullableInt(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
