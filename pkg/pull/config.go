package pull

import "time"

type Config struct {
	Interval time.Duration `env:"NOTIFY_PULL_INTERVAL" envDefault:"30s"`
	Timeout  time.Duration `env:"NOTIFY_PULL_TIMEOUT" envDefault:"10s"`
}
