package report

import (
	"time"

	"github.com/nao1215/puzzlecrawl/internal/database"
	"github.com/nao1215/puzzlecrawl/internal/model"
	"github.com/nao1215/puzzlecrawl/internal/store"
)

// Status is a snapshot of the store and its provenance.
type Status struct {
	// Generated is when the snapshot was taken.
	Generated time.Time `json:"generated"`

	// StoreRoot is the directory the inventory was taken from.
	StoreRoot string `json:"store_root"`

	// Primary is the primary identity of the registry, if any.
	Primary model.Identity `json:"primary,omitempty"`

	// Identities lists every registered identity.
	Identities []model.Identity `json:"identities"`

	// Years summarizes the store year by year.
	Years []YearStatus `json:"years"`

	// Ledger holds provenance totals when a ledger was available.
	Ledger *database.Stats `json:"ledger,omitempty"`

	// LastRun summarizes the fetches of the most recent run, if known.
	LastRun *database.FetchCounts `json:"last_run,omitempty"`
}

// YearStatus summarizes one year of the store.
type YearStatus struct {
	Year     int         `json:"year"`
	Days     int         `json:"days"`
	Inputs   int         `json:"inputs"`
	Examples int         `json:"examples"`
	Answers  map[int]int `json:"answers"`
}

// NewStatus builds a Status from a store inventory.
func NewStatus(root string, inv *store.Inventory) *Status {
	s := &Status{
		Generated:  time.Now(),
		StoreRoot:  root,
		Identities: make([]model.Identity, 0),
		Years:      make([]YearStatus, 0),
	}
	if inv == nil {
		return s
	}
	for _, y := range inv.Years {
		c := y.Counts()
		s.Years = append(s.Years, YearStatus{
			Year:     y.Year,
			Days:     c.Days,
			Inputs:   c.Inputs,
			Examples: c.Examples,
			Answers:  c.Answers,
		})
	}
	return s
}

// Totals sums every year.
func (s *Status) Totals() YearStatus {
	t := YearStatus{Answers: make(map[int]int)}
	for _, y := range s.Years {
		t.Days += y.Days
		t.Inputs += y.Inputs
		t.Examples += y.Examples
		for part, n := range y.Answers {
			t.Answers[part] += n
		}
	}
	return t
}

// AnswerTotal sums the answers of every part.
func (y YearStatus) AnswerTotal() int {
	var n int
	for _, v := range y.Answers {
		n += v
	}
	return n
}

// Empty reports whether the store holds nothing.
func (s *Status) Empty() bool {
	return len(s.Years) == 0
}
