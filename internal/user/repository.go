// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pegplug/pegplug-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error

	// RefreshDailySpins resets the spin balance iff the stored
	// last_spin_date falls on an earlier UTC calendar day than now.
	// Balance and last_spin_date change in one statement so the pair
	// is never observed torn. Returns true when a reset happened.
	RefreshDailySpins(
		ctx context.Context,
		id string,
		allotment int,
		now time.Time,
	) (bool, error)

	// SpendSpins decrements the balance iff at least count spins
	// remain, stamping last_spin_date in the same statement.
	SpendSpins(
		ctx context.Context,
		id string,
		count int,
		now time.Time,
	) (bool, error)

	// SetTierAndSpins writes tier and balance together (upgrade top-up).
	SetTierAndSpins(
		ctx context.Context,
		id, tier string,
		spins int,
	) error

	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, display_name, role, tier, available_spins,
	       last_spin_date, notifications_enabled, device_id,
	       created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, email, display_name, role, tier,
			available_spins, notifications_enabled, device_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.Tier,
		user.AvailableSpins,
		user.NotificationsEnabled,
		user.DeviceID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Row already provisioned by a concurrent first-auth request.
		return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE email = $1 AND deleted_at IS NULL`, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET display_name = $2, role = $3,
		    notifications_enabled = $4, device_id = $5,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.DisplayName,
		user.Role,
		user.NotificationsEnabled,
		user.DeviceID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) RefreshDailySpins(
	ctx context.Context,
	id string,
	allotment int,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE users
		SET available_spins = $2, last_spin_date = $3, updated_at = NOW()
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND (
			last_spin_date IS NULL
			OR (last_spin_date AT TIME ZONE 'UTC')::date
			   <> ($3 AT TIME ZONE 'UTC')::date
		  )`

	result, err := r.db.ExecContext(ctx, query, id, allotment, now.UTC())
	if err != nil {
		return false, fmt.Errorf("refresh daily spins: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("refresh daily spins: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) SpendSpins(
	ctx context.Context,
	id string,
	count int,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE users
		SET available_spins = available_spins - $2,
		    last_spin_date = $3,
		    updated_at = NOW()
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND available_spins >= $2`

	result, err := r.db.ExecContext(ctx, query, id, count, now.UTC())
	if err != nil {
		return false, fmt.Errorf("spend spins: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("spend spins: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) SetTierAndSpins(
	ctx context.Context,
	id, tier string,
	spins int,
) error {
	query := `
		UPDATE users
		SET tier = $2, available_spins = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, tier, spins)
	if err != nil {
		return fmt.Errorf("set tier and spins: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set tier and spins: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set tier and spins: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR display_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Tier != "" {
		conditions = append(conditions, fmt.Sprintf("tier = $%d", argIdx))
		args = append(args, params.Tier)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
