package domain

import "github.com/spec-kit/contest-service/internal/tracking"

const (
	// KindUser identifies users in change snapshots and store queries.
	KindUser tracking.Kind = "user"

	UserFieldUsername = "username"
)

// User is the minimal identity a contestant points at.
type User struct {
	ID       string
	Username string
}

func (u *User) EntityKind() tracking.Kind { return KindUser }
func (u *User) EntityID() string          { return u.ID }
func (u *User) SetEntityID(id string)     { u.ID = id }

func (u *User) TrackedValues() tracking.Values {
	return tracking.Values{UserFieldUsername: u.Username}
}

// Kinds lists every entity kind in dependency order, parents first.
var Kinds = []tracking.Kind{KindUser, KindContest, KindContestant}
