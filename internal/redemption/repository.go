// AngelaMos | 2026
// repository.go

package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pegplug/pegplug-backend/internal/core"
)

type Repository interface {
	// CreatePendingAtomic runs the create-if-absent algorithm as one
	// serializable unit per (userID, dealID): fail on an existing
	// completed row, reuse a still-valid pending row, self-heal a
	// stale one, otherwise insert. The partial unique index on
	// pending rows makes the insert race-safe; a lost race returns
	// the winner's row.
	CreatePendingAtomic(
		ctx context.Context,
		rec *Redemption,
	) (*Redemption, error)

	GetByID(ctx context.Context, id string) (*Redemption, error)
	ListByUser(ctx context.Context, userID string) ([]Redemption, error)

	// Complete transitions pending -> completed iff the row is still
	// inside its validity window at now.
	Complete(ctx context.Context, id string, now time.Time) (bool, error)

	// MarkExpired transitions pending -> expired; reports whether a
	// row actually changed.
	MarkExpired(
		ctx context.Context,
		id string,
		cancelledByUser bool,
	) (bool, error)

	SetNotificationSent(ctx context.Context, id string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const redemptionColumns = `id, user_id, deal_id, merchant_id, location_id,
	       status, created_at, expires_at, completed_at, device_id,
	       latitude, longitude, notification_sent, cancelled_by_user,
	       updated_at`

func (r *repository) CreatePendingAtomic(
	ctx context.Context,
	rec *Redemption,
) (*Redemption, error) {
	var result *Redemption

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		completedQuery := `
			SELECT EXISTS(
				SELECT 1 FROM redemptions
				WHERE user_id = $1 AND deal_id = $2 AND status = 'completed'
			)`

		var completed bool
		err := tx.GetContext(ctx, &completed, completedQuery,
			rec.UserID, rec.DealID)
		if err != nil {
			return fmt.Errorf("check completed redemption: %w", err)
		}
		if completed {
			return ErrAlreadyRedeemed
		}

		pendingQuery := fmt.Sprintf(`
			SELECT %s
			FROM redemptions
			WHERE user_id = $1 AND deal_id = $2 AND status = 'pending'
			FOR UPDATE`, redemptionColumns)

		var existing Redemption
		err = tx.GetContext(ctx, &existing, pendingQuery,
			rec.UserID, rec.DealID)
		switch {
		case err == nil:
			if existing.IsValidAt(rec.CreatedAt) {
				result = &existing
				return nil
			}
			// Stale pending row: expire it so a fresh one can be staged.
			expireQuery := `
				UPDATE redemptions
				SET status = 'expired', updated_at = NOW()
				WHERE id = $1 AND status = 'pending'`
			if _, execErr := tx.ExecContext(ctx, expireQuery, existing.ID); execErr != nil {
				return fmt.Errorf("expire stale redemption: %w", execErr)
			}
		case errors.Is(err, sql.ErrNoRows):
			// No pending row, proceed to insert.
		default:
			return fmt.Errorf("check pending redemption: %w", err)
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO redemptions (
				id, user_id, deal_id, merchant_id, location_id,
				status, created_at, expires_at, device_id,
				latitude, longitude
			)
			VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8, $9, $10)
			ON CONFLICT (user_id, deal_id) WHERE status = 'pending'
			DO NOTHING
			RETURNING %s`, redemptionColumns)

		var inserted Redemption
		err = tx.GetContext(ctx, &inserted, insertQuery,
			rec.ID,
			rec.UserID,
			rec.DealID,
			rec.MerchantID,
			rec.LocationID,
			rec.CreatedAt,
			rec.ExpiresAt,
			rec.DeviceID,
			rec.Latitude,
			rec.Longitude,
		)
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the insert race; return the concurrent winner's row.
			var winner Redemption
			if getErr := tx.GetContext(ctx, &winner, pendingQuery,
				rec.UserID, rec.DealID); getErr != nil {
				return fmt.Errorf("fetch racing redemption: %w", getErr)
			}
			result = &winner
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert redemption: %w", err)
		}

		result = &inserted
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Redemption, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM redemptions WHERE id = $1`,
		redemptionColumns,
	)

	var rec Redemption
	err := r.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get redemption: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}

	return &rec, nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
) ([]Redemption, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC`, redemptionColumns)

	var recs []Redemption
	if err := r.db.SelectContext(ctx, &recs, query, userID); err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}

	return recs, nil
}

func (r *repository) Complete(
	ctx context.Context,
	id string,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE redemptions
		SET status = 'completed', completed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND expires_at > $2`

	result, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("complete redemption: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete redemption: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) MarkExpired(
	ctx context.Context,
	id string,
	cancelledByUser bool,
) (bool, error) {
	query := `
		UPDATE redemptions
		SET status = 'expired', cancelled_by_user = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id, cancelledByUser)
	if err != nil {
		return false, fmt.Errorf("expire redemption: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("expire redemption: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) SetNotificationSent(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE redemptions
		SET notification_sent = TRUE, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("set notification sent: %w", err)
	}

	return nil
}
