package store

import (
	"context"
	"database/sql"
	"time"

	"airthlab/models"
)

const planColumns = `id, name, price, duration_days, is_active, upload_limit_mb, ai_queries_per_month, retention_days, priority_support, self_serve`

func scanPlan(row interface{ Scan(...any) error }) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.IsActive,
		&p.UploadLimitMB, &p.AIQueriesPerMonth, &p.RetentionDays, &p.PrioritySupport, &p.SelfServe)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []models.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetActivePlan returns the plan only if it is active, or sql.ErrNoRows.
func (s *Store) GetActivePlan(ctx context.Context, planID int) (*models.SubscriptionPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE id = $1 AND is_active = TRUE`, planID)
	return scanPlan(row)
}

func (s *Store) GetPlan(ctx context.Context, planID int) (*models.SubscriptionPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, planID)
	return scanPlan(row)
}

// SeedPlan inserts a catalog entry when no plan with that name exists.
func (s *Store) SeedPlan(ctx context.Context, p models.SubscriptionPlan) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscription_plans
		 (name, price, duration_days, is_active, upload_limit_mb, ai_queries_per_month, retention_days, priority_support, self_serve)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (name) DO NOTHING`,
		p.Name, p.Price, p.DurationDays, p.IsActive,
		p.UploadLimitMB, p.AIQueriesPerMonth, p.RetentionDays, p.PrioritySupport, p.SelfServe)
	return err
}

// ActiveSubscription returns the user's active row, or sql.ErrNoRows.
func (s *Store) ActiveSubscription(ctx context.Context, userID int) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, plan_id, start_date, end_date, status
		 FROM user_subscriptions
		 WHERE user_id = $1 AND status = 'active'
		 ORDER BY id DESC LIMIT 1`, userID,
	).Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.StartDate, &sub.EndDate, &sub.Status)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ReplaceActiveSubscription expires any current active row and inserts the new
// one inside a single transaction, so two concurrent subscribes cannot both
// leave an active row behind.
func (s *Store) ReplaceActiveSubscription(ctx context.Context, userID, planID int, start, end time.Time) (*models.UserSubscription, error) {
	sub := models.UserSubscription{
		UserID:    userID,
		PlanID:    planID,
		StartDate: start,
		EndDate:   end,
		Status:    models.SubscriptionActive,
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_subscriptions SET status = 'expired' WHERE user_id = $1 AND status = 'active'`,
			userID); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO user_subscriptions (user_id, plan_id, start_date, end_date, status)
			 VALUES ($1, $2, $3, $4, 'active')
			 RETURNING id`,
			userID, planID, start, end,
		).Scan(&sub.ID)
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) SetSubscriptionStatus(ctx context.Context, subscriptionID int, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_subscriptions SET status = $1 WHERE id = $2`, status, subscriptionID)
	return err
}
