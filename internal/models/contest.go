package models

import (
	"errors"
	"time"
)

const (
	SettingContestClosed   = "CONTEST_IS_CLOSED"
	SettingContestClosedAt = "CONTEST_CLOSED_AT"
	SettingPublicScores    = "PUBLIC_SCORES_VISIBLE"
)

var (
	ErrContestAlreadyClosed = errors.New("contest is already closed")
	ErrContestNotClosed     = errors.New("contest is not closed")
)

// ContestState is the typed view over the contest settings rows.
type ContestState struct {
	Closed       bool       `json:"closed"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
	PublicScores bool       `json:"publicScores"`
}

// Close moves an open contest to closed.
func (s ContestState) Close(now time.Time) (ContestState, error) {
	if s.Closed {
		return s, ErrContestAlreadyClosed
	}
	s.Closed = true
	s.ClosedAt = &now
	return s, nil
}

// Reopen moves a closed contest back to open. The closing snapshot on videos is kept.
func (s ContestState) Reopen() (ContestState, error) {
	if !s.Closed {
		return s, ErrContestNotClosed
	}
	s.Closed = false
	s.ClosedAt = nil
	return s, nil
}
