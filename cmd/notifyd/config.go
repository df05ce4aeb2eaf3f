package main

import (
	"github.com/insurdash/dashboard/pkg/httpserver"
	"github.com/insurdash/dashboard/pkg/notifyapi"
	"github.com/insurdash/dashboard/pkg/redis"
	"github.com/insurdash/dashboard/pkg/session"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	PushEnabled bool   `env:"NOTIFY_PUSH_ENABLED" envDefault:"true"`

	// Optional identity signed in at startup; otherwise POST /session.
	UserID string `env:"NOTIFY_USER_ID"`
	Role   string `env:"NOTIFY_USER_ROLE"`
	Token  string `env:"NOTIFY_USER_TOKEN"`

	HTTP    httpserver.Config
	API     notifyapi.Config
	Redis   redis.Config
	Session session.Config
}
