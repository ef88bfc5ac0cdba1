package types

import "sort"

// CardType is the scheduling state of a card.
type CardType int

// Card types as stored by Anki.
const (
	CardTypeNew CardType = iota
	CardTypeLearning
	CardTypeReview
	CardTypeRelearning
)

func (t CardType) String() string {
	switch t {
	case CardTypeNew:
		return "new"
	case CardTypeLearning:
		return "learning"
	case CardTypeReview:
		return "review"
	case CardTypeRelearning:
		return "relearning"
	default:
		return "unknown"
	}
}

// Rating is the answer ease passed to answerCards.
type Rating int

// Ratings accepted by answerCards.
const (
	RatingAgain Rating = iota + 1
	RatingHard
	RatingGood
	RatingEasy
)

// Description returns a human readable label for the rating.
func (r Rating) Description() string {
	switch r {
	case RatingAgain:
		return "Again (failed to recall)"
	case RatingHard:
		return "Hard (recalled with difficulty)"
	case RatingGood:
		return "Good (recalled with some effort)"
	case RatingEasy:
		return "Easy (recalled instantly)"
	default:
		return "Unknown"
	}
}

type (
	// CardInfo is one entry of a cardsInfo result. Missing cards come back
	// as an empty object, so CardID is zero for them.
	CardInfo struct {
		CardID     int64                 `json:"cardId"`
		Fields     map[string]FieldValue `json:"fields"`
		FieldOrder int                   `json:"fieldOrder"`
		Question   string                `json:"question"`
		Answer     string                `json:"answer"`
		ModelName  string                `json:"modelName"`
		Ord        int                   `json:"ord"`
		DeckName   string                `json:"deckName"`
		CSS        string                `json:"css"`
		Factor     int                   `json:"factor"`
		Interval   int                   `json:"interval"`
		Note       int64                 `json:"note"`
		Type       CardType              `json:"type"`
		Queue      int                   `json:"queue"`
		Due        int64                 `json:"due"`
		Reps       int                   `json:"reps"`
		Lapses     int                   `json:"lapses"`
		Left       int                   `json:"left"`
		Mod        int64                 `json:"mod"`
		Tags       []string              `json:"tags,omitempty"`
	}

	// SimplifiedCard is the compact card shape returned to the assistant.
	SimplifiedCard struct {
		CardID    int64  `json:"cardId"`
		Front     string `json:"front"`
		Back      string `json:"back"`
		DeckName  string `json:"deckName"`
		ModelName string `json:"modelName"`
		Due       int64  `json:"due"`
		Interval  int    `json:"interval"`
		Factor    int    `json:"factor"`
		Type      string `json:"type"`
	}

	// CardPresentation is a single card prepared for review.
	CardPresentation struct {
		CardID          int64    `json:"cardId"`
		Front           string   `json:"front"`
		Back            string   `json:"back,omitempty"`
		DeckName        string   `json:"deckName"`
		ModelName       string   `json:"modelName"`
		Tags            []string `json:"tags"`
		CurrentInterval int      `json:"currentInterval"`
		EaseFactor      int      `json:"easeFactor"`
		Reviews         int      `json:"reviews"`
		Lapses          int      `json:"lapses"`
		CardType        string   `json:"cardType"`
		NoteID          int64    `json:"noteId"`
	}

	// CardAnswer is one element of answerCards' answers list.
	CardAnswer struct {
		CardID int64  `json:"cardId"`
		Ease   Rating `json:"ease"`
	}
)

// FieldNames returns the card's note field names in model order.
func (c CardInfo) FieldNames() []string {
	return orderedFieldNames(c.Fields)
}

func orderedFieldNames(fields map[string]FieldValue) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, oj := fields[names[i]].Order, fields[names[j]].Order
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}
