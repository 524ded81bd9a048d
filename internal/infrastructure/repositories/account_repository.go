package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/db"
)

const (
	accountExistsQuery = `SELECT EXISTS (SELECT 1 FROM employees WHERE lower(email) = $1)`

	selectAccountQuery = `
		SELECT id, email, password_hash, first_name, last_name, is_active, created_at, updated_at
		FROM employees
		WHERE lower(email) = $1`

	selectFirstNameQuery = `SELECT first_name FROM employees WHERE lower(email) = $1`

	setSecretQuery = `
		UPDATE employees
		SET password_hash = $1, updated_at = NOW()
		WHERE lower(email) = $2 AND is_active = TRUE`
)

// AccountRepository implements ports.AccountRepository over the employees table.
// Lookups are case-insensitive: arguments are normalised and matched against
// lower(email), which is uniquely indexed.
type AccountRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates a new account repository
func NewAccountRepository(database *db.Database, logger *logrus.Logger) *AccountRepository {
	return &AccountRepository{db: database, logger: logger}
}

// Exists reports whether an account with email exists, active or not
func (r *AccountRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.DB.GetContext(ctx, &exists, accountExistsQuery, account.NormalizeEmail(email)); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("db: failed to check account existence")
		}
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return exists, nil
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var a account.Account
	err := r.db.DB.GetContext(ctx, &a, selectAccountQuery, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with email %s: %w", email, ports.ErrAccountNotFound)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("db: failed to get account by email")
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &a, nil
}

// GetFirstName returns the first name used to greet the account owner
func (r *AccountRepository) GetFirstName(ctx context.Context, email string) (string, error) {
	var name string
	err := r.db.DB.GetContext(ctx, &name, selectFirstNameQuery, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("account with email %s: %w", email, ports.ErrAccountNotFound)
		}
		return "", fmt.Errorf("failed to get first name: %w", err)
	}
	return name, nil
}

// SetEncodedSecret stores the encoded password on an active account
func (r *AccountRepository) SetEncodedSecret(ctx context.Context, encodedSecret, email string) error {
	return setEncodedSecret(ctx, r.db.DB, encodedSecret, email)
}

func setEncodedSecret(ctx context.Context, e sqlx.ExecerContext, encodedSecret, email string) error {
	result, err := e.ExecContext(ctx, setSecretQuery, encodedSecret, account.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("active account with email %s: %w", email, ports.ErrAccountNotFound)
	}
	return nil
}
