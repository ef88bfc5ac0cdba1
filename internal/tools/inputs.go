package tools

import "github.com/taigrr/anki-mcp/internal/types"

type (
	// EmptyInput is the input of tools that take no arguments.
	EmptyInput struct{}

	// ListDecksInput contains parameters for listing decks.
	ListDecksInput struct {
		IncludeStats bool `json:"include_stats,omitempty" jsonschema:"Include card counts for each deck (default: false)"`
	}

	// CreateDeckInput contains parameters for creating a deck.
	CreateDeckInput struct {
		DeckName string `json:"deck_name" jsonschema:"Deck name, at most two levels deep (Parent::Child)"`
	}

	// GetDueCardsInput contains parameters for fetching due cards.
	GetDueCardsInput struct {
		DeckName string `json:"deck_name,omitempty" jsonschema:"Only return cards from this deck (default: all decks)"`
		Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of cards to return, 1 to 50 (default: 10)"`
	}

	// PresentCardInput contains parameters for presenting a card.
	PresentCardInput struct {
		CardID     int64 `json:"card_id" jsonschema:"ID of the card to present"`
		ShowAnswer bool  `json:"show_answer,omitempty" jsonschema:"Include the back of the card (default: false)"`
	}

	// RateCardInput contains parameters for answering a card.
	RateCardInput struct {
		CardID int64 `json:"card_id" jsonschema:"ID of the card being rated"`
		Rating int   `json:"rating" jsonschema:"1 = Again, 2 = Hard, 3 = Good, 4 = Easy"`
	}

	// ModelNameInput names a note type.
	ModelNameInput struct {
		ModelName string `json:"modelName" jsonschema:"Name of the note type (model)"`
	}

	// UpdateModelStylingInput contains parameters for replacing a model's CSS.
	UpdateModelStylingInput struct {
		ModelName string `json:"modelName" jsonschema:"Name of the note type (model)"`
		CSS       string `json:"css" jsonschema:"New CSS for every card of the model"`
	}

	// CreateModelInput contains parameters for creating a note type.
	CreateModelInput struct {
		ModelName     string               `json:"modelName" jsonschema:"Unique name for the new note type"`
		InOrderFields []string             `json:"inOrderFields" jsonschema:"Field names in display order"`
		CardTemplates []types.CardTemplate `json:"cardTemplates" jsonschema:"Card templates, one per card type"`
		CSS           string               `json:"css,omitempty" jsonschema:"Stylesheet shared by all card templates (optional)"`
		IsCloze       bool                 `json:"isCloze,omitempty" jsonschema:"Create a cloze deletion model (default: false)"`
	}

	// AddNoteInput contains parameters for adding a note.
	AddNoteInput struct {
		DeckName       string            `json:"deckName" jsonschema:"Deck to add the note to"`
		ModelName      string            `json:"modelName" jsonschema:"Note type, e.g. Basic or Cloze"`
		Fields         map[string]string `json:"fields" jsonschema:"Field values keyed by field name; use modelFieldNames to look them up"`
		Tags           []string          `json:"tags,omitempty" jsonschema:"Tags to attach (optional)"`
		AllowDuplicate bool              `json:"allowDuplicate,omitempty" jsonschema:"Allow adding a note whose first field duplicates an existing note (default: false)"`
		DuplicateScope string            `json:"duplicateScope,omitempty" jsonschema:"Duplicate check scope: deck or collection (optional)"`
	}

	// FindNotesInput contains parameters for searching notes.
	FindNotesInput struct {
		Query string `json:"query" jsonschema:"Anki search query, e.g. deck:Spanish tag:verbs"`
	}

	// NoteIDsInput lists note ids.
	NoteIDsInput struct {
		Notes []int64 `json:"notes" jsonschema:"Note IDs, at most 100"`
	}

	// UpdateNoteFieldsInput contains parameters for editing a note.
	UpdateNoteFieldsInput struct {
		Note types.NoteUpdate `json:"note" jsonschema:"Note id and the field values to change"`
	}

	// DeleteNotesInput contains parameters for deleting notes.
	DeleteNotesInput struct {
		Notes           []int64 `json:"notes" jsonschema:"Note IDs to delete, at most 100"`
		ConfirmDeletion bool    `json:"confirmDeletion,omitempty" jsonschema:"Must be true to actually delete; this cannot be undone"`
	}

	// MediaActionsInput contains parameters for the media tool.
	MediaActionsInput struct {
		Action         string `json:"action" jsonschema:"One of storeMediaFile, retrieveMediaFile, getMediaFilesNames, deleteMediaFile"`
		Filename       string `json:"filename,omitempty" jsonschema:"Media file name (store, retrieve, delete)"`
		Data           string `json:"data,omitempty" jsonschema:"Base64 file contents (store)"`
		Path           string `json:"path,omitempty" jsonschema:"Absolute path of a local file (store)"`
		URL            string `json:"url,omitempty" jsonschema:"URL to download the file from (store)"`
		DeleteExisting *bool  `json:"deleteExisting,omitempty" jsonschema:"Replace an existing file of the same name (store, default: true)"`
		Pattern        string `json:"pattern,omitempty" jsonschema:"Glob pattern to filter file names, e.g. *.mp3 (list)"`
	}

	// GUIBrowseInput contains parameters for opening the Card Browser.
	GUIBrowseInput struct {
		Query        string              `json:"query" jsonschema:"Anki search query, e.g. deck:Spanish is:due"`
		ReorderCards *types.BrowserOrder `json:"reorderCards,omitempty" jsonschema:"Optional reordering of cards in the browser"`
	}

	// GUISelectCardInput names a card in the Card Browser.
	GUISelectCardInput struct {
		Card int64 `json:"card" jsonschema:"Card ID to select"`
	}

	// GUIEditNoteInput names a note to edit.
	GUIEditNoteInput struct {
		Note int64 `json:"note" jsonschema:"Note ID to open in the editor"`
	}

	// GUIDeckOverviewInput names a deck.
	GUIDeckOverviewInput struct {
		Name string `json:"name" jsonschema:"Deck name"`
	}

	// GUINote is the note pre-filled in the Add Cards dialog.
	GUINote struct {
		DeckName  string            `json:"deckName" jsonschema:"Deck to add the note to"`
		ModelName string            `json:"modelName" jsonschema:"Note type"`
		Fields    map[string]string `json:"fields" jsonschema:"Field values keyed by field name"`
		Tags      []string          `json:"tags,omitempty" jsonschema:"Tags to attach (optional)"`
	}

	// GUIAddCardsInput contains parameters for the Add Cards dialog.
	GUIAddCardsInput struct {
		Note GUINote `json:"note" jsonschema:"Note to pre-fill"`
	}

	// EchoInput contains parameters for echo.
	EchoInput struct {
		Message   string `json:"message" jsonschema:"The message to echo back"`
		Uppercase bool   `json:"uppercase,omitempty" jsonschema:"Return message in uppercase (default: false)"`
	}
)
