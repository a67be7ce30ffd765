package scheduler

import (
	"context"

	"github.com/mnbarber/bookden/internal/services"
	"github.com/mnbarber/bookden/pkg/logger"
	"github.com/robfig/cron/v3"
)

// StartGoalCronJobs wires periodic goal maintenance. Goals whose window
// has closed are retired hourly so progress views only show live goals.
func StartGoalCronJobs(goalService *services.GoalService) *cron.Cron {
	c := cron.New()

	c.AddFunc("@hourly", func() {
		if err := goalService.DeactivateExpired(context.Background()); err != nil {
			logger.Log.WithError(err).Error("DeactivateExpired failed")
		}
	})

	c.Start()
	return c
}
