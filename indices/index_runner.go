package indices

import (
	"os"

	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultFullSyncSchedule = "0 0 23 * * ?"

// StartCron schedules the periodic full sync, INDEX_FULL_SYNC_CRON overrides the schedule and "-" disables it
func StartCron() (*cron.Cron, error) {
	spec := os.Getenv("INDEX_FULL_SYNC_CRON")
	if spec == "-" {
		return nil, nil
	}
	if spec == "" {
		spec = defaultFullSyncSchedule
	}

	crontab := cron.New(cron.WithSeconds())
	if _, err := crontab.AddFunc(spec, func() {
		if err := IndicesFullSyncFunc(); err != nil {
			logrus.Warnf("scheduled indices fully sync: %v", err)
		}
	}); err != nil {
		return nil, err
	}
	crontab.Start()
	logrus.Infof("indices fully sync scheduled at '%s'", spec)
	return crontab, nil
}
