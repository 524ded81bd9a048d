package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/db"
)

const (
	insertLinkQuery = `
		INSERT INTO links (id, generation_time, hit_count, purpose, email)
		VALUES ($1, $2, $3, $4, $5)`

	selectLinkQuery = `
		SELECT id, generation_time, hit_count, purpose, email
		FROM links
		WHERE id = $1`

	// The row is the index: the condition and the increment are one statement.
	redeemLinkQuery = `
		UPDATE links
		SET hit_count = hit_count + 1
		WHERE id = $1 AND hit_count = 0 AND generation_time > $2
		RETURNING id, generation_time, hit_count, purpose, email`

	redeemLinkForEmailQuery = `
		UPDATE links
		SET hit_count = hit_count + 1
		WHERE id = $1 AND hit_count = 0 AND generation_time > $2
		  AND (email IS NULL OR email = $3)
		RETURNING id, generation_time, hit_count, purpose, email`
)

// LinkRepository implements ports.LinkRepository on Postgres.
type LinkRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

var _ ports.LinkRepository = (*LinkRepository)(nil)

// NewLinkRepository creates a new link repository
func NewLinkRepository(database *db.Database, logger *logrus.Logger) *LinkRepository {
	return &LinkRepository{db: database, logger: logger}
}

// Create inserts a new link record
func (r *LinkRepository) Create(ctx context.Context, l *link.Link) error {
	_, err := r.db.DB.ExecContext(ctx, insertLinkQuery, l.ID, l.GenerationTime, l.HitCount, l.Purpose, l.Email)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"link_id": l.ID, "purpose": l.Purpose}).WithError(err).Error("db: failed to create link")
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetByID retrieves a link by its identifier
func (r *LinkRepository) GetByID(ctx context.Context, id string) (*link.Link, error) {
	var l link.Link
	err := r.db.DB.GetContext(ctx, &l, selectLinkQuery, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"link_id": id}).Debug("db: link not found")
			}
			return nil, fmt.Errorf("link %s: %w", id, ports.ErrLinkNotFound)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"link_id": id}).WithError(err).Error("db: failed to get link")
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &l, nil
}

// Redeem implements ports.LinkRepository.
func (r *LinkRepository) Redeem(ctx context.Context, id string, cutoff time.Time) (*link.Link, error) {
	var l link.Link
	return finishRedeem(&l, id, sqlx.GetContext(ctx, r.db.DB, &l, redeemLinkQuery, id, cutoff))
}

// redeemLinkForEmail also refuses links bound to an address other than email.
func redeemLinkForEmail(ctx context.Context, q sqlx.QueryerContext, id, email string, cutoff time.Time) (*link.Link, error) {
	var l link.Link
	return finishRedeem(&l, id, sqlx.GetContext(ctx, q, &l, redeemLinkForEmailQuery, id, cutoff, email))
}

func finishRedeem(l *link.Link, id string, err error) (*link.Link, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("link %s: %w", id, ports.ErrLinkNotRedeemable)
		}
		return nil, fmt.Errorf("failed to redeem link: %w", err)
	}
	return l, nil
}
