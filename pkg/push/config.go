package push

import "github.com/insurdash/dashboard/pkg/backoff"

// Config holds the push channel policy.
type Config struct {
	// RoleTopics lists the roles that also receive their role-wide channel.
	RoleTopics []string            `env:"NOTIFY_PUSH_ROLE_TOPICS" envSeparator:"," envDefault:"admin,super_admin"`
	Backoff    backoff.Exponential `envPrefix:"NOTIFY_PUSH_BACKOFF_"`
}
