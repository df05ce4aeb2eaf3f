package push

import "slices"

const (
	UserTopicPrefix = "notifications.user."
	RoleTopicPrefix = "notifications.role."
)

// DefaultRoleTopics are the roles granted a role channel when none are configured.
var DefaultRoleTopics = []string{"admin", "super_admin"}

// UserTopic is the channel addressed to a single identity.
func UserTopic(userID string) string {
	return UserTopicPrefix + userID
}

// RoleTopic is the channel shared by every identity holding role.
func RoleTopic(role string) string {
	return RoleTopicPrefix + role
}

// Topics returns the channels an identity listens on: always its own, plus
// its role channel when role is one of grantedRoles. A nil grantedRoles
// means DefaultRoleTopics.
func Topics(userID, role string, grantedRoles []string) []string {
	if grantedRoles == nil {
		grantedRoles = DefaultRoleTopics
	}
	topics := []string{UserTopic(userID)}
	if role != "" && slices.Contains(grantedRoles, role) {
		topics = append(topics, RoleTopic(role))
	}
	return topics
}
