package domain

import "github.com/spec-kit/contest-service/internal/tracking"

const (
	// KindContestant identifies contestants in change snapshots and store queries.
	KindContestant tracking.Kind = "contestant"

	ContestantFieldUserID    = "user_id"
	ContestantFieldContestID = "contest_id"
)

// Contestant enrolls a user in a contest. It references both by id and owns neither.
type Contestant struct {
	ID        string
	UserID    string
	ContestID string
}

func (c *Contestant) EntityKind() tracking.Kind { return KindContestant }
func (c *Contestant) EntityID() string          { return c.ID }
func (c *Contestant) SetEntityID(id string)     { c.ID = id }

func (c *Contestant) TrackedValues() tracking.Values {
	return tracking.Values{
		ContestantFieldUserID:    c.UserID,
		ContestantFieldContestID: c.ContestID,
	}
}

// ContestantsOf selects the contestants enrolled in contestID.
func ContestantsOf(contestID string) tracking.Query {
	return tracking.Query{Kind: KindContestant, Field: ContestantFieldContestID, Value: contestID}
}
