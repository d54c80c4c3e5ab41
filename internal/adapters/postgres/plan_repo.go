package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oyvstu/vegplan/internal/core/domain"
)

// ErrPlanNotFound is returned when no plan row matches the given id.
var ErrPlanNotFound = errors.New("plan not found")

// PlanRepo implements ports.PlanRepository. Placed annotations are stored
// as JSONB payload columns; the plan's identity and road reference stay
// relational for listing and lookup.
type PlanRepo struct {
	db *DB
}

func NewPlanRepo(db *DB) *PlanRepo { return &PlanRepo{db: db} }

func (r *PlanRepo) Create(ctx context.Context, plan *domain.Plan) error {
	boundaries, signs, polygons, polylines, err := marshalPayload(plan)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO plans (id, name, road_ref, sequence_id, boundaries, signs, polygons, polylines, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, plan.ID, plan.Name, plan.RoadRef, plan.SequenceID,
		boundaries, signs, polygons, polylines, plan.CreatedAt, plan.UpdatedAt)
	return err
}

func (r *PlanRepo) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	var (
		plan       domain.Plan
		boundaries []byte
		signs      []byte
		polygons   []byte
		polylines  []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, road_ref, sequence_id, boundaries, signs, polygons, polylines, created_at, updated_at
		FROM plans WHERE id = $1
	`, id).Scan(&plan.ID, &plan.Name, &plan.RoadRef, &plan.SequenceID,
		&boundaries, &signs, &polygons, &polylines, &plan.CreatedAt, &plan.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalPayload(&plan, boundaries, signs, polygons, polylines); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepo) List(ctx context.Context, limit, offset int) ([]domain.Plan, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, road_ref, sequence_id, boundaries, signs, polygons, polylines, created_at, updated_at
		FROM plans ORDER BY updated_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var (
			plan       domain.Plan
			boundaries []byte
			signs      []byte
			polygons   []byte
			polylines  []byte
		)
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.RoadRef, &plan.SequenceID,
			&boundaries, &signs, &polygons, &polylines, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalPayload(&plan, boundaries, signs, polygons, polylines); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *PlanRepo) Update(ctx context.Context, plan *domain.Plan) error {
	boundaries, signs, polygons, polylines, err := marshalPayload(plan)
	if err != nil {
		return err
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE plans
		SET name = $2, road_ref = $3, sequence_id = $4,
		    boundaries = $5, signs = $6, polygons = $7, polylines = $8, updated_at = $9
		WHERE id = $1
	`, plan.ID, plan.Name, plan.RoadRef, plan.SequenceID,
		boundaries, signs, polygons, polylines, plan.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func marshalPayload(plan *domain.Plan) (boundaries, signs, polygons, polylines []byte, err error) {
	if boundaries, err = json.Marshal(plan.Boundaries); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal boundaries: %w", err)
	}
	if signs, err = json.Marshal(plan.Signs); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal signs: %w", err)
	}
	if polygons, err = json.Marshal(plan.Polygons); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal polygons: %w", err)
	}
	if polylines, err = json.Marshal(plan.Polylines); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal polylines: %w", err)
	}
	return boundaries, signs, polygons, polylines, nil
}

func unmarshalPayload(plan *domain.Plan, boundaries, signs, polygons, polylines []byte) error {
	if len(boundaries) > 0 {
		if err := json.Unmarshal(boundaries, &plan.Boundaries); err != nil {
			return fmt.Errorf("unmarshal boundaries: %w", err)
		}
	}
	if len(signs) > 0 {
		if err := json.Unmarshal(signs, &plan.Signs); err != nil {
			return fmt.Errorf("unmarshal signs: %w", err)
		}
	}
	if len(polygons) > 0 {
		if err := json.Unmarshal(polygons, &plan.Polygons); err != nil {
			return fmt.Errorf("unmarshal polygons: %w", err)
		}
	}
	if len(polylines) > 0 {
		if err := json.Unmarshal(polylines, &plan.Polylines); err != nil {
			return fmt.Errorf("unmarshal polylines: %w", err)
		}
	}
	return nil
}
