package store

import (
	"time"

	"github.com/Sjoneon/DaySync-Server/core"
)

// WithUserDefaults fills what CreateUser defaults: a fresh UUID, the default
// nickname and prep time, and creation/activity timestamps.
func WithUserDefaults(u core.User) core.User {
	if u.ID == "" {
		u.ID = core.NewUserID()
	}
	if u.Nickname == "" {
		u.Nickname = core.DefaultNickname
	}
	if u.PrepTime == 0 {
		u.PrepTime = core.DefaultPrepTime
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.LastActive.IsZero() {
		u.LastActive = u.CreatedAt
	}
	return u
}
