// AngelaMos | 2026
// repository.go

package merchant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pegplug/pegplug-backend/internal/core"
)

// Batched id lookups are chunked so the IN list stays small enough
// for a stable query plan.
const idChunkSize = 10

type Repository interface {
	GetMerchant(ctx context.Context, id string) (*Merchant, error)
	ListActiveMerchants(ctx context.Context) ([]Merchant, error)
	GetLocation(ctx context.Context, id string) (*Location, error)
	ListLocations(ctx context.Context, merchantID string) ([]Location, error)
	GetDeal(ctx context.Context, id string) (*Deal, error)
	GetDealsByIDs(ctx context.Context, ids []string) ([]Deal, error)

	// ListActiveDealsAt returns deals for the merchant that include the
	// location and are live at now.
	ListActiveDealsAt(
		ctx context.Context,
		merchantID, locationID string,
		now time.Time,
	) ([]Deal, error)

	ListDealsByMerchant(ctx context.Context, merchantID string) ([]Deal, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const merchantColumns = `id, name, logo_url, active, geofence_radius_miles,
	       api_key_hash, created_at, updated_at`

const dealColumns = `d.id, d.merchant_id, d.title, d.description, d.terms,
	       d.image_url, d.start_date, d.end_date, d.active,
	       d.created_at, d.updated_at`

func (r *repository) GetMerchant(
	ctx context.Context,
	id string,
) (*Merchant, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM merchants WHERE id = $1`,
		merchantColumns,
	)

	var m Merchant
	err := r.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get merchant: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant: %w", err)
	}

	return &m, nil
}

func (r *repository) ListActiveMerchants(
	ctx context.Context,
) ([]Merchant, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM merchants WHERE active = TRUE ORDER BY name`,
		merchantColumns,
	)

	var merchants []Merchant
	if err := r.db.SelectContext(ctx, &merchants, query); err != nil {
		return nil, fmt.Errorf("list active merchants: %w", err)
	}

	return merchants, nil
}

func (r *repository) GetLocation(
	ctx context.Context,
	id string,
) (*Location, error) {
	query := `
		SELECT id, merchant_id, name, address, latitude, longitude, created_at
		FROM locations
		WHERE id = $1`

	var loc Location
	err := r.db.GetContext(ctx, &loc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get location: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}

	return &loc, nil
}

func (r *repository) ListLocations(
	ctx context.Context,
	merchantID string,
) ([]Location, error) {
	query := `
		SELECT id, merchant_id, name, address, latitude, longitude, created_at
		FROM locations
		WHERE merchant_id = $1
		ORDER BY name`

	var locations []Location
	if err := r.db.SelectContext(ctx, &locations, query, merchantID); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	return locations, nil
}

func (r *repository) GetDeal(ctx context.Context, id string) (*Deal, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM deals d WHERE d.id = $1`,
		dealColumns,
	)

	var deal Deal
	err := r.db.GetContext(ctx, &deal, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get deal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get deal: %w", err)
	}

	if err := r.attachLocationIDs(ctx, []*Deal{&deal}); err != nil {
		return nil, err
	}

	return &deal, nil
}

func (r *repository) GetDealsByIDs(
	ctx context.Context,
	ids []string,
) ([]Deal, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	deals := make([]Deal, 0, len(ids))

	for start := 0; start < len(ids); start += idChunkSize {
		end := min(start+idChunkSize, len(ids))

		query, args, err := sqlx.In(
			fmt.Sprintf(`SELECT %s FROM deals d WHERE d.id IN (?)`, dealColumns),
			ids[start:end],
		)
		if err != nil {
			return nil, fmt.Errorf("get deals by ids: %w", err)
		}

		query = sqlx.Rebind(sqlx.DOLLAR, query)

		var chunk []Deal
		if err := r.db.SelectContext(ctx, &chunk, query, args...); err != nil {
			return nil, fmt.Errorf("get deals by ids: %w", err)
		}

		deals = append(deals, chunk...)
	}

	refs := make([]*Deal, len(deals))
	for i := range deals {
		refs[i] = &deals[i]
	}
	if err := r.attachLocationIDs(ctx, refs); err != nil {
		return nil, err
	}

	return deals, nil
}

func (r *repository) ListActiveDealsAt(
	ctx context.Context,
	merchantID, locationID string,
	now time.Time,
) ([]Deal, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM deals d
		JOIN deal_locations dl ON dl.deal_id = d.id
		WHERE d.merchant_id = $1
		  AND dl.location_id = $2
		  AND d.active = TRUE
		  AND (d.start_date IS NULL OR d.start_date <= $3)
		  AND (d.end_date IS NULL OR d.end_date >= $3)
		ORDER BY d.created_at DESC`, dealColumns)

	var deals []Deal
	err := r.db.SelectContext(ctx, &deals, query, merchantID, locationID, now)
	if err != nil {
		return nil, fmt.Errorf("list active deals: %w", err)
	}

	return deals, nil
}

func (r *repository) ListDealsByMerchant(
	ctx context.Context,
	merchantID string,
) ([]Deal, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM deals d
		WHERE d.merchant_id = $1
		ORDER BY d.created_at DESC`, dealColumns)

	var deals []Deal
	if err := r.db.SelectContext(ctx, &deals, query, merchantID); err != nil {
		return nil, fmt.Errorf("list deals by merchant: %w", err)
	}

	refs := make([]*Deal, len(deals))
	for i := range deals {
		refs[i] = &deals[i]
	}
	if err := r.attachLocationIDs(ctx, refs); err != nil {
		return nil, err
	}

	return deals, nil
}

type dealLocationRow struct {
	DealID     string `db:"deal_id"`
	LocationID string `db:"location_id"`
}

func (r *repository) attachLocationIDs(
	ctx context.Context,
	deals []*Deal,
) error {
	if len(deals) == 0 {
		return nil
	}

	byID := make(map[string]*Deal, len(deals))
	ids := make([]string, 0, len(deals))
	for _, d := range deals {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	for start := 0; start < len(ids); start += idChunkSize {
		end := min(start+idChunkSize, len(ids))

		query, args, err := sqlx.In(
			`SELECT deal_id, location_id FROM deal_locations WHERE deal_id IN (?)`,
			ids[start:end],
		)
		if err != nil {
			return fmt.Errorf("attach location ids: %w", err)
		}

		query = sqlx.Rebind(sqlx.DOLLAR, query)

		var rows []dealLocationRow
		if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return fmt.Errorf("attach location ids: %w", err)
		}

		for _, row := range rows {
			if d, ok := byID[row.DealID]; ok {
				d.LocationIDs = append(d.LocationIDs, row.LocationID)
			}
		}
	}

	return nil
}
