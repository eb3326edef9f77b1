package domain

import (
	"time"

	"github.com/spec-kit/contest-service/internal/tracking"
)

// ContestStatus enumerates lifecycle states for contests.
type ContestStatus string

const (
	ContestStatusDraft     ContestStatus = "DRAFT"
	ContestStatusPublic    ContestStatus = "PUBLIC"
	ContestStatusFinalized ContestStatus = "FINALIZED"
)

// Valid reports whether s is a known status.
func (s ContestStatus) Valid() bool {
	switch s {
	case ContestStatusDraft, ContestStatusPublic, ContestStatusFinalized:
		return true
	}
	return false
}

const (
	// KindContest identifies contests in change snapshots and store queries.
	KindContest tracking.Kind = "contest"

	ContestFieldName     = "name"
	ContestFieldLockDate = "lock_date"
	ContestFieldStatus   = "status"
)

// PublishLeadTime is how far in the future the lock date must be when a contest is published.
const PublishLeadTime = 3 * 24 * time.Hour

// MinContestantsToFinalize is the contestant count a contest needs before it can be finalized.
const MinContestantsToFinalize = 10

// Contest is the aggregate governed by the lifecycle rules.
type Contest struct {
	ID       string
	Name     string
	LockDate time.Time
	Status   ContestStatus
}

// NewContest builds a draft contest whose lock date is PublishLeadTime after now.
func NewContest(name string, now time.Time) *Contest {
	return &Contest{
		Name:     name,
		LockDate: now.Add(PublishLeadTime).UTC(),
		Status:   ContestStatusDraft,
	}
}

func (c *Contest) EntityKind() tracking.Kind { return KindContest }
func (c *Contest) EntityID() string          { return c.ID }
func (c *Contest) SetEntityID(id string)     { c.ID = id }

func (c *Contest) TrackedValues() tracking.Values {
	return tracking.Values{
		ContestFieldName:     c.Name,
		ContestFieldLockDate: c.LockDate,
		ContestFieldStatus:   c.Status,
	}
}
