// Package types defines the AnkiConnect payloads shared across the server.
package types

type (
	// FieldValue is one note field as AnkiConnect reports it.
	FieldValue struct {
		Value string `json:"value"`
		Order int    `json:"order"`
	}

	// NoteInfo is one entry of a notesInfo result.
	NoteInfo struct {
		NoteID    int64                 `json:"noteId"`
		ModelName string                `json:"modelName"`
		Tags      []string              `json:"tags"`
		Fields    map[string]FieldValue `json:"fields"`
		Cards     []int64               `json:"cards"`
		Mod       int64                 `json:"mod,omitempty"`
	}

	// NewNote is the note object accepted by addNote and guiAddCards.
	NewNote struct {
		DeckName  string            `json:"deckName"`
		ModelName string            `json:"modelName"`
		Fields    map[string]string `json:"fields"`
		Tags      []string          `json:"tags,omitempty"`
		Options   *NoteOptions      `json:"options,omitempty"`
	}

	// NoteOptions controls duplicate handling for addNote.
	NoteOptions struct {
		AllowDuplicate bool   `json:"allowDuplicate"`
		DuplicateScope string `json:"duplicateScope,omitempty"`
	}

	// NoteUpdate is the note object accepted by updateNoteFields.
	NoteUpdate struct {
		ID     int64             `json:"id"`
		Fields map[string]string `json:"fields"`
	}
)

// FieldNames returns the note's field names in model order.
func (n NoteInfo) FieldNames() []string {
	return orderedFieldNames(n.Fields)
}
