package notifyapi

import "time"

type Config struct {
	BaseURL string        `env:"NOTIFY_API_URL,required"`
	Timeout time.Duration `env:"NOTIFY_API_TIMEOUT" envDefault:"10s"`
}
