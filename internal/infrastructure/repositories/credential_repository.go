package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/db"
)

// CredentialRepository commits a password and consumes its link in one transaction.
type CredentialRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

var _ ports.CredentialRepository = (*CredentialRepository)(nil)

func NewCredentialRepository(database *db.Database, logger *logrus.Logger) *CredentialRepository {
	return &CredentialRepository{db: database, logger: logger}
}

// CommitSecret redeems the link first so a concurrent commit for the same link waits on
// the row lock and then matches zero rows.
func (r *CredentialRepository) CommitSecret(ctx context.Context, linkID, email, encodedSecret string, cutoff time.Time) (*link.Link, error) {
	var redeemed *link.Link
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		l, err := redeemLinkForEmail(ctx, tx, linkID, email, cutoff)
		if err != nil {
			return err
		}
		if err := setEncodedSecret(ctx, tx, encodedSecret, email); err != nil {
			return err
		}
		redeemed = l
		return nil
	})
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"link_id": linkID, "email": email}).WithError(err).Warn("db: credential commit rolled back")
		}
		return nil, err
	}
	return redeemed, nil
}
