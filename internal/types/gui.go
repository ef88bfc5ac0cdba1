package types

type (
	// GUICurrentCard is the guiCurrentCard result while reviewing.
	GUICurrentCard struct {
		CardID      int64                 `json:"cardId"`
		Question    string                `json:"question"`
		Answer      string                `json:"answer"`
		DeckName    string                `json:"deckName"`
		ModelName   string                `json:"modelName"`
		FieldOrder  int                   `json:"fieldOrder"`
		Fields      map[string]FieldValue `json:"fields"`
		Template    string                `json:"template"`
		ButtonIDs   []int                 `json:"buttons"`
		NextReviews []string              `json:"nextReviews"`
	}

	// BrowserOrder reorders the Card Browser.
	BrowserOrder struct {
		Order    string `json:"order" jsonschema:"Sort order: ascending or descending"`
		ColumnID string `json:"columnId" jsonschema:"Column to sort by, e.g. noteFld, noteCrt, cardDue"`
	}
)
