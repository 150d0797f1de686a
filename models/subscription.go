package models

import (
	"time"
)

type SubscriptionPlan struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	DurationDays      int     `json:"duration_days"`
	IsActive          bool    `json:"-"`
	UploadLimitMB     int     `json:"upload_limit_mb"`
	AIQueriesPerMonth int     `json:"ai_queries_per_month"`
	RetentionDays     int     `json:"retention_days"`
	PrioritySupport   bool    `json:"priority_support"`
	SelfServe         bool    `json:"-"`
}

const (
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
)

type UserSubscription struct {
	ID        int       `json:"id"`
	UserID    int       `json:"-"`
	PlanID    int       `json:"-"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
}
