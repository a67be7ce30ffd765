package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal types and timeframes.
const (
	GoalTypeBooks = "books"
	GoalTypePages = "pages"

	TimeframeWeek    = "week"
	TimeframeMonth   = "month"
	TimeframeYear    = "year"
	TimeframeAllTime = "all-time"
)

// Goal is a user-defined reading target over a time window. The window is
// derived once at creation; progress is never stored, always recomputed
// from the "read" shelf on read.
type Goal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type        string             `bson:"type" json:"type"`
	TargetValue int                `bson:"target_value" json:"target_value"`
	Timeframe   string             `bson:"timeframe" json:"timeframe"`
	StartDate   time.Time          `bson:"start_date" json:"start_date"`
	EndDate     time.Time          `bson:"end_date" json:"end_date"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// GoalProgress is the computed view of one goal. CurrentValue may exceed
// the target; Percent is capped at 100.
type GoalProgress struct {
	Goal         Goal `json:"goal"`
	CurrentValue int  `json:"current_value"`
	Percent      int  `json:"percent"`
}
