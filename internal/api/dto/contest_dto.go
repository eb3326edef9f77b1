package dto

import (
	"time"

	"github.com/spec-kit/contest-service/internal/domain"
)

// CreateContestRequest payload.
type CreateContestRequest struct {
	Name string `json:"name"`
}

// UpdateContestRequest payload.
type UpdateContestRequest struct {
	Name     string    `json:"name"`
	LockDate time.Time `json:"lock_date"`
}

// ContestResponse is the public view of a contest.
type ContestResponse struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	LockDate time.Time            `json:"lock_date"`
	Status   domain.ContestStatus `json:"status"`
}

// NewContestResponse maps a contest.
func NewContestResponse(contest *domain.Contest) ContestResponse {
	return ContestResponse{
		ID:       contest.ID,
		Name:     contest.Name,
		LockDate: contest.LockDate,
		Status:   contest.Status,
	}
}

// EnrollContestantRequest payload.
type EnrollContestantRequest struct {
	UserID string `json:"user_id"`
}

// ContestantResponse is the public view of a contestant.
type ContestantResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ContestID string `json:"contest_id"`
}

// NewContestantResponse maps a contestant.
func NewContestantResponse(contestant *domain.Contestant) ContestantResponse {
	return ContestantResponse{
		ID:        contestant.ID,
		UserID:    contestant.UserID,
		ContestID: contestant.ContestID,
	}
}

// ContestantCountResponse reports how many contestants a contest has.
type ContestantCountResponse struct {
	ContestID string `json:"contest_id"`
	Count     int    `json:"count"`
}
