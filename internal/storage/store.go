// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/toodl/toodl/internal/models"
)

var (
	// ErrNotFound wraps all lookups that miss.
	ErrNotFound = errors.New("not found")

	// ErrMemberInUse is returned when removing a member that is still
	// referenced by an expense or settlement.
	ErrMemberInUse = errors.New("member is referenced by expenses or settlements")

	// ErrEmailExists is returned when creating a user with a taken email.
	ErrEmailExists = errors.New("email already registered")
)

// Store defines the persistence operations for the split backend.
// The abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Groups. GetGroup returns the group with its full member list.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, groupID string) error
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// Members. RemoveMember fails with ErrMemberInUse while any expense or
	// settlement still references the member.
	AddMember(ctx context.Context, groupID string, member *models.Member) error
	RenameMember(ctx context.Context, groupID, memberID, firstName string) error
	RemoveMember(ctx context.Context, groupID, memberID string) error

	// Expenses. UpdateExpense replaces the record wholesale, splits included.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// Settlements. ConfirmSettlement flips pending -> confirmed; the
	// payee-only rule is enforced by the service layer.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	ConfirmSettlement(ctx context.Context, settlementID string, confirmedAt int64) error
	DeleteSettlement(ctx context.Context, settlementID string) error
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
