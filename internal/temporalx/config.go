package temporalx

import (
	"fmt"

	"github.com/savioxavier/swe-group-7/internal/platform/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string
	// TimeZone is the IANA zone the daily schedules fire in.
	TimeZone string

	// Filled from DECAY_AT / HARVEST_AT by the app.
	DecayCron   string
	HarvestCron string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string
}

func LoadConfig() Config {
	return Config{
		Address:   envutil.String("TEMPORAL_ADDRESS", ""),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", "garden"),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "garden-sweeps"),
		TimeZone:  envutil.String("GARDEN_TIMEZONE", "UTC"),

		DecayCron:   "1 0 * * *",
		HarvestCron: "5 0 * * *",

		ClientCertPath: envutil.String("TEMPORAL_CLIENT_CERT_PATH", ""),
		ClientKeyPath:  envutil.String("TEMPORAL_CLIENT_KEY_PATH", ""),
		ClientCAPath:   envutil.String("TEMPORAL_CLIENT_CA_PATH", ""),
	}
}

func (c Config) Enabled() bool { return c.Address != "" }

func (c Config) mTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}

// CronFromClock turns a time of day into a daily cron expression.
func CronFromClock(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
