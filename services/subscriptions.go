package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airthlab/models"
)

// SubscriptionStore is the data access surface the ledger needs.
type SubscriptionStore interface {
	ActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetActivePlan(ctx context.Context, planID int) (*models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, planID int) (*models.SubscriptionPlan, error)
	SeedPlan(ctx context.Context, p models.SubscriptionPlan) error
	ActiveSubscription(ctx context.Context, userID int) (*models.UserSubscription, error)
	ReplaceActiveSubscription(ctx context.Context, userID, planID int, start, end time.Time) (*models.UserSubscription, error)
	SetSubscriptionStatus(ctx context.Context, subscriptionID int, status string) error
}

type SubscriptionService struct {
	store SubscriptionStore
	now   func() time.Time
}

func NewSubscriptionService(st SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{store: st, now: time.Now}
}

// SubscriptionDetail is the shaped response for subscribe/my-subscription.
type SubscriptionDetail struct {
	ID            int                     `json:"id"`
	Plan          models.SubscriptionPlan `json:"plan"`
	StartDate     time.Time               `json:"start_date"`
	EndDate       time.Time               `json:"end_date"`
	Status        string                  `json:"status"`
	RemainingDays int                     `json:"remaining_days"`
}

func (s *SubscriptionService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.store.ActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	return plans, nil
}

// Subscribe replaces the user's active subscription with a fresh period on the
// given plan. The old active row, if any, is marked expired in the same
// transaction as the insert.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, planID int) (*SubscriptionDetail, error) {
	plan, err := s.store.GetActivePlan(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Plan not found")
		}
		return nil, fmt.Errorf("looking up plan: %w", err)
	}
	if !plan.SelfServe {
		return nil, forbidden("Plan is not available for self-service")
	}

	now := s.now().UTC()

	current, err := s.store.ActiveSubscription(ctx, userID)
	switch {
	case err == nil:
		if current.EndDate.Before(now) {
			// Stale active row; flip it before deciding anything else.
			if err := s.store.SetSubscriptionStatus(ctx, current.ID, models.SubscriptionExpired); err != nil {
				return nil, fmt.Errorf("expiring subscription: %w", err)
			}
		} else if current.PlanID == plan.ID {
			return nil, invalidInput("Already subscribed to this plan")
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("looking up subscription: %w", err)
	}

	end := now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	sub, err := s.store.ReplaceActiveSubscription(ctx, userID, plan.ID, now, end)
	if err != nil {
		return nil, fmt.Errorf("creating subscription: %w", err)
	}
	return s.detail(sub, plan), nil
}

// MySubscription returns the user's active subscription, lazily expiring it
// when the end date has passed.
func (s *SubscriptionService) MySubscription(ctx context.Context, userID int) (*SubscriptionDetail, error) {
	sub, err := s.store.ActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("No active subscription")
		}
		return nil, fmt.Errorf("looking up subscription: %w", err)
	}

	if sub.EndDate.Before(s.now().UTC()) {
		if err := s.store.SetSubscriptionStatus(ctx, sub.ID, models.SubscriptionExpired); err != nil {
			return nil, fmt.Errorf("expiring subscription: %w", err)
		}
		return nil, expired("Subscription expired")
	}

	plan, err := s.store.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("looking up plan: %w", err)
	}
	return s.detail(sub, plan), nil
}

func (s *SubscriptionService) Cancel(ctx context.Context, userID int) error {
	sub, err := s.store.ActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("No active subscription")
		}
		return fmt.Errorf("looking up subscription: %w", err)
	}
	if err := s.store.SetSubscriptionStatus(ctx, sub.ID, models.SubscriptionCanceled); err != nil {
		return fmt.Errorf("canceling subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionService) detail(sub *models.UserSubscription, plan *models.SubscriptionPlan) *SubscriptionDetail {
	return &SubscriptionDetail{
		ID:            sub.ID,
		Plan:          *plan,
		StartDate:     sub.StartDate,
		EndDate:       sub.EndDate,
		Status:        sub.Status,
		RemainingDays: remainingDays(sub.EndDate, s.now().UTC()),
	}
}

// remainingDays counts whole days until end, never negative.
func remainingDays(end, now time.Time) int {
	d := int(end.Sub(now) / (24 * time.Hour))
	if d < 0 {
		return 0
	}
	return d
}

// SeedDefaultPlans inserts the plan catalog; existing names are left alone.
func (s *SubscriptionService) SeedDefaultPlans(ctx context.Context) error {
	plans := []models.SubscriptionPlan{
		{Name: "Free", Price: 0, DurationDays: 30, IsActive: true,
			UploadLimitMB: 100, AIQueriesPerMonth: 50, RetentionDays: 7, SelfServe: true},
		{Name: "Basic", Price: 399.99, DurationDays: 30, IsActive: true,
			UploadLimitMB: 1024, AIQueriesPerMonth: 500, RetentionDays: 30, SelfServe: true},
		{Name: "Pro", Price: 599.99, DurationDays: 30, IsActive: true,
			UploadLimitMB: 10240, AIQueriesPerMonth: 5000, RetentionDays: 90, PrioritySupport: true, SelfServe: true},
		{Name: "Premium", Price: 999.99, DurationDays: 30, IsActive: true,
			UploadLimitMB: 51200, AIQueriesPerMonth: 50000, RetentionDays: 365, PrioritySupport: true, SelfServe: true},
		{Name: "Enterprise", Price: 1999.99, DurationDays: 30, IsActive: true,
			UploadLimitMB: 102400, AIQueriesPerMonth: 500000, RetentionDays: 730, PrioritySupport: true, SelfServe: false},
	}
	for _, p := range plans {
		if err := s.store.SeedPlan(ctx, p); err != nil {
			return fmt.Errorf("seeding plan %s: %w", p.Name, err)
		}
	}
	return nil
}
