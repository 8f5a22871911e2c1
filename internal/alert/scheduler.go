package alert

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StartScheduler runs a periodic alert sweep on the given cron
// schedule, e.g. "0 6 * * *" for every morning.
func StartScheduler(db *gorm.DB, schedule string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		Sweep(db)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info().Str("schedule", schedule).Msg("alert scheduler started")

	return c, nil
}
