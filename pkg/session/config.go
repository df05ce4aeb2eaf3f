package session

import (
	"github.com/insurdash/dashboard/pkg/alerts"
	"github.com/insurdash/dashboard/pkg/pull"
	"github.com/insurdash/dashboard/pkg/push"
)

// Config gathers the per-session component settings.
type Config struct {
	Pull   pull.Config
	Alerts alerts.Config
	Push   push.Config
}
