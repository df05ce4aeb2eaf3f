package alerts

import "time"

// Config controls how long alerts stay on screen and how many may pile up.
type Config struct {
	TTL       time.Duration `env:"NOTIFY_ALERT_TTL" envDefault:"5s"`
	MaxAlerts int           `env:"NOTIFY_ALERT_MAX" envDefault:"0"` // 0 = unbounded
}
