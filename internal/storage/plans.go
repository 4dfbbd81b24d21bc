package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/meltforce/gymtrack/internal/models"
)

// LoadPlans returns all decodable plans in store order, plus the ids of
// rows whose workout JSON failed to decode. A corrupt row never hides
// the healthy ones; the plan store decides what to do about the
// casualties. Query and scan failures are still errors.
func (d *DB) LoadPlans(ctx context.Context) ([]models.Plan, []int, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, description, workout_a, workout_b, workout_c
		 FROM plans ORDER BY position ASC`)
	if err != nil {
		return nil, nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	var corrupt []int
	for rows.Next() {
		var p models.Plan
		var a, b, c []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &a, &b, &c); err != nil {
			return nil, nil, fmt.Errorf("scanning plan: %w", err)
		}
		if json.Unmarshal(a, &p.WorkoutA) != nil ||
			json.Unmarshal(b, &p.WorkoutB) != nil ||
			json.Unmarshal(c, &p.WorkoutC) != nil {
			corrupt = append(corrupt, p.ID)
			continue
		}
		plans = append(plans, p)
	}
	return plans, corrupt, rows.Err()
}

// UpsertPlan inserts or replaces a single plan. New plans are appended
// at the end of the store order.
func (d *DB) UpsertPlan(ctx context.Context, p models.Plan) error {
	a, b, c, err := marshalWorkouts(p)
	if err != nil {
		return err
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO plans (id, position, name, description, workout_a, workout_b, workout_c)
		 VALUES (?, COALESCE((SELECT position FROM plans WHERE id = ?),
		                     (SELECT COALESCE(MAX(position), 0) + 1 FROM plans)),
		         ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, description = excluded.description,
		   workout_a = excluded.workout_a, workout_b = excluded.workout_b,
		   workout_c = excluded.workout_c`,
		p.ID, p.ID, p.Name, p.Description, a, b, c)
	if err != nil {
		return fmt.Errorf("upserting plan %d: %w", p.ID, err)
	}
	return nil
}

// ReplacePlans atomically replaces the whole plan collection with the
// given sequence, assigning positions 1..N in order. Used by delete,
// which re-indexes the surviving plans.
func (d *DB) ReplacePlans(ctx context.Context, plans []models.Plan) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM plans`); err != nil {
		return fmt.Errorf("clearing plans: %w", err)
	}
	for i, p := range plans {
		a, b, c, err := marshalWorkouts(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plans (id, position, name, description, workout_a, workout_b, workout_c)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i+1, p.Name, p.Description, a, b, c); err != nil {
			return fmt.Errorf("inserting plan %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// ActivePlanID returns the stored active-plan reference, or 0 if none
// has been set yet.
func (d *DB) ActivePlanID(ctx context.Context) (int, error) {
	var id int
	err := d.db.QueryRowContext(ctx,
		`SELECT plan_id FROM active_plan WHERE id = 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying active plan: %w", err)
	}
	return id, nil
}

// SetActivePlanID stores the active-plan reference.
func (d *DB) SetActivePlanID(ctx context.Context, planID int) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO active_plan (id, plan_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET plan_id = excluded.plan_id`,
		planID)
	if err != nil {
		return fmt.Errorf("setting active plan: %w", err)
	}
	return nil
}

func marshalWorkouts(p models.Plan) (a, b, c []byte, err error) {
	if a, err = json.Marshal(p.WorkoutA); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding plan %d workout A: %w", p.ID, err)
	}
	if b, err = json.Marshal(p.WorkoutB); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding plan %d workout B: %w", p.ID, err)
	}
	if c, err = json.Marshal(p.WorkoutC); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding plan %d workout C: %w", p.ID, err)
	}
	return a, b, c, nil
}
