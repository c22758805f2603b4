// services/scheduler.go
package services

import (
	"time"

	"engage-points-system/models"
	"engage-points-system/utils"

	"github.com/go-co-op/gocron/v2"
)

// StartCatalogSweep periodically hands every user the catalog tasks they do
// not yet hold, so newly published tasks reach existing users without a
// client-driven assign-all. It rides the same idempotent set-difference path
// as the API and is therefore safe against concurrent client calls.
func (s *AssignmentService) StartCatalogSweep(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			var tgIDs []string
			if err := s.DB.Model(&models.User{}).Pluck("tg_id", &tgIDs).Error; err != nil {
				utils.Sugar.Errorw("catalog sweep: listing users failed", "error", err)
				return
			}

			assigned := 0
			for _, tgID := range tgIDs {
				created, err := s.AssignAllCatalogTasks(tgID)
				if err != nil {
					utils.Sugar.Errorw("catalog sweep: assign-all failed", "tg_id", tgID, "error", err)
					continue
				}
				assigned += len(created)
			}
			if assigned > 0 {
				utils.Sugar.Infow("catalog sweep: assigned new tasks", "users", len(tgIDs), "assignments", assigned)
			}
		}),
	)
}
