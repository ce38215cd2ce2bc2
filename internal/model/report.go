package model

import "time"

// CrawlReport summarizes one crawl session for a single identity.
type CrawlReport struct {
	// Identity is the identity the session acted as.
	Identity Identity `json:"identity"`

	// Started is when the session began.
	Started time.Time `json:"started"`

	// InputsStored counts inputs newly written to the store.
	InputsStored int `json:"inputs_stored"`

	// InputsSeen counts inputs resolved, new or already present.
	InputsSeen int `json:"inputs_seen"`

	// AnswersStored counts answers newly written to the store.
	AnswersStored int `json:"answers_stored"`

	// AnswersSeen counts answers resolved, new or already present.
	AnswersSeen int `json:"answers_seen"`

	// AnswersMissing counts puzzle parts the identity has not solved.
	AnswersMissing int `json:"answers_missing"`

	// Collisions counts writes skipped because different content occupied the path.
	Collisions int `json:"collisions"`

	// StoppedAt is the key at which the last sub-mode ended, if it ended on a gap.
	StoppedAt *PuzzleKey `json:"stopped_at,omitempty"`

	// PerformedSteps lists the sub-modes that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Error holds the first step failure, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewCrawlReport creates an empty report for the identity.
func NewCrawlReport(identity Identity) *CrawlReport {
	return &CrawlReport{
		Identity:       identity,
		Started:        time.Now(),
		PerformedSteps: make([]string, 0),
	}
}
