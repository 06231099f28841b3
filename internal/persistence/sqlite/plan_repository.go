package sqlite

import (
	"context"

	"github.com/example/callboard/internal/persistence"
)

// PlanRepository implements persistence.PlanRepository using SQLite. The
// plans table is reference data written only by the seeder.
type PlanRepository struct {
	db *DB
}

// NewPlanRepository creates a SQLite-backed plan repository.
func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, name, price, features, voice_enabled, multi_counter, ads_enabled, created_at`

// GetPlan retrieves a catalog entry by id.
func (r *PlanRepository) GetPlan(ctx context.Context, id string) (persistence.Plan, error) {
	if id == "" {
		return persistence.Plan{}, persistence.ErrNotFound
	}

	row := r.db.sql.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)

	var (
		plan      persistence.Plan
		createdAt string
	)
	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Price,
		&plan.Features,
		&plan.VoiceEnabled,
		&plan.MultiCounter,
		&plan.AdsEnabled,
		&createdAt,
	)
	if err != nil {
		return persistence.Plan{}, mapError(err)
	}
	if plan.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Plan{}, err
	}
	return plan, nil
}

// ListPlans returns the full catalog ordered by price ascending.
func (r *PlanRepository) ListPlans(ctx context.Context) ([]persistence.Plan, error) {
	rows, err := r.db.sql.QueryContext(ctx, `SELECT `+planColumns+` FROM plans ORDER BY price ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var plans []persistence.Plan
	for rows.Next() {
		var (
			plan      persistence.Plan
			createdAt string
		)
		err := rows.Scan(
			&plan.ID,
			&plan.Name,
			&plan.Price,
			&plan.Features,
			&plan.VoiceEnabled,
			&plan.MultiCounter,
			&plan.AdsEnabled,
			&createdAt,
		)
		if err != nil {
			return nil, mapError(err)
		}
		if plan.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return plans, nil
}
