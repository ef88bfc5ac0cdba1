package types

type (
	// DeckInfo is one deck in a list_decks response.
	DeckInfo struct {
		Name  string     `json:"name"`
		Stats *DeckStats `json:"stats,omitempty"`
	}

	// DeckStats are the per-deck counters reported to the assistant.
	DeckStats struct {
		DeckID      int64  `json:"deck_id"`
		Name        string `json:"name"`
		NewCount    int    `json:"new_count"`
		LearnCount  int    `json:"learn_count"`
		ReviewCount int    `json:"review_count"`
		TotalNew    int    `json:"total_new"`
		TotalCards  int    `json:"total_cards"`
	}

	// RawDeckStats is one value of a getDeckStats result, which is keyed by
	// deck id.
	RawDeckStats struct {
		DeckID      int64  `json:"deck_id"`
		Name        string `json:"name"`
		NewCount    int    `json:"new_count"`
		LearnCount  int    `json:"learn_count"`
		ReviewCount int    `json:"review_count"`
		TotalInDeck int    `json:"total_in_deck"`
	}

	// DeckSummary totals the stats of every listed deck.
	DeckSummary struct {
		TotalCards    int `json:"total_cards"`
		NewCards      int `json:"new_cards"`
		LearningCards int `json:"learning_cards"`
		ReviewCards   int `json:"review_cards"`
	}
)

// Stats converts the raw counters for the deck called name.
func (r RawDeckStats) Stats(name string) *DeckStats {
	return &DeckStats{
		DeckID:      r.DeckID,
		Name:        name,
		NewCount:    r.NewCount,
		LearnCount:  r.LearnCount,
		ReviewCount: r.ReviewCount,
		TotalNew:    r.NewCount,
		TotalCards:  r.TotalInDeck,
	}
}

// Add accumulates s into the summary.
func (s *DeckSummary) Add(stats *DeckStats) {
	if stats == nil {
		return
	}
	s.TotalCards += stats.TotalCards
	s.NewCards += stats.NewCount
	s.LearningCards += stats.LearnCount
	s.ReviewCards += stats.ReviewCount
}
