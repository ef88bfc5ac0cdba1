package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
	"github.com/taigrr/anki-mcp/internal/envelope"
	"github.com/taigrr/anki-mcp/internal/types"
)

const explicitOnly = " IMPORTANT: Only use when the user explicitly asks for it; the GUI is not needed for reviews."

func (h *handlers) guiTools() []Tool {
	return []Tool{
		define("guiBrowse", GroupGUI,
			"Open the Anki Card Browser and search for cards using Anki query syntax. Returns the IDs of the cards found."+explicitOnly,
			h.guiBrowse, readOnly()),
		define("guiSelectCard", GroupGUI,
			"Select a card in an open Card Browser window. Fails if the browser is not open."+explicitOnly,
			h.guiSelectCard),
		define("guiSelectedNotes", GroupGUI,
			"Get the IDs of the notes currently selected in the Card Browser."+explicitOnly,
			h.guiSelectedNotes, readOnly()),
		define("guiAddCards", GroupGUI,
			"Open the Add Cards dialog pre-filled with a note so the user can review it before adding."+explicitOnly,
			h.guiAddCards),
		define("guiEditNote", GroupGUI,
			"Open the note editor for a note so the user can edit fields, tags and cards in Anki."+explicitOnly,
			h.guiEditNote),
		define("guiCurrentCard", GroupGUI,
			"Get the card currently shown in review mode, or null when Anki is not reviewing."+explicitOnly,
			h.guiCurrentCard, readOnly()),
		define("guiShowQuestion", GroupGUI,
			"Show the question side of the current card in review mode."+explicitOnly,
			h.guiShowQuestion),
		define("guiShowAnswer", GroupGUI,
			"Show the answer side of the current card in review mode."+explicitOnly,
			h.guiShowAnswer),
		define("guiUndo", GroupGUI,
			"Undo the last action or card in Anki."+explicitOnly,
			h.guiUndo),
		define("guiDeckOverview", GroupGUI,
			"Open the Deck Overview for a deck, showing its statistics and study options."+explicitOnly,
			h.guiDeckOverview, minLength("name", 1)),
		define("guiDeckBrowser", GroupGUI,
			"Open the Deck Browser showing all decks."+explicitOnly,
			h.guiDeckBrowser),
	}
}

func (h *handlers) guiBrowse(ctx context.Context, in GUIBrowseInput, p Progress) envelope.Envelope {
	params := map[string]any{"query": in.Query}
	if in.ReorderCards != nil {
		params["reorderCards"] = in.ReorderCards
	}

	step(ctx, p, 50)
	ids, err := ankiconnect.Call[[]int64](ctx, h.anki, "guiBrowse", params)
	if err != nil {
		hint := "Make sure Anki is running and the GUI is visible"
		if envelope.Contains(err, "query", "syntax") {
			hint = `Invalid search query. Check Anki search syntax. Examples: "deck:MyDeck", "tag:important", "is:due"`
		}
		return envelope.Failure(err, envelope.Fields{"query": in.Query, "hint": hint})
	}
	step(ctx, p, 100)

	if ids == nil {
		ids = []int64{}
	}
	hint := "Use guiSelectCard to select a specific card, or guiSelectedNotes to get selected notes."
	if len(ids) == 0 {
		hint = "No cards found. Try adjusting your search query."
	}
	return envelope.Success(envelope.Fields{
		"cardIds":   ids,
		"cardCount": len(ids),
		"query":     in.Query,
		"message":   fmt.Sprintf("Card Browser opened with %d card(s) matching query %q", len(ids), in.Query),
		"hint":      hint,
	})
}

func (h *handlers) guiSelectCard(ctx context.Context, in GUISelectCardInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	selected, err := ankiconnect.Call[bool](ctx, h.anki, "guiSelectCard", map[string]any{"card": in.Card})
	if err != nil {
		hint := "Make sure Anki is running, the Card Browser is open, and the card ID is valid"
		if envelope.Contains(err, "not found", "invalid") {
			hint = "Card ID not found. Make sure the card exists and is visible in the current browser search."
		}
		return envelope.Failure(err, envelope.Fields{"cardId": in.Card, "hint": hint})
	}
	step(ctx, p, 100)

	if !selected {
		return envelope.Invalid("Card Browser is not open",
			"Use guiBrowse to open the Card Browser first, then try selecting the card again.",
			envelope.Fields{"cardId": in.Card, "browserOpen": false})
	}
	return envelope.Success(envelope.Fields{
		"cardId":      in.Card,
		"browserOpen": true,
		"message":     fmt.Sprintf("Successfully selected card %d in Card Browser", in.Card),
		"hint":        "The card is now selected. Use guiEditNote to edit the associated note, or guiSelectedNotes to get note IDs.",
	})
}

func (h *handlers) guiSelectedNotes(ctx context.Context, _ EmptyInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	ids, err := ankiconnect.Call[[]int64](ctx, h.anki, "guiSelectedNotes", nil)
	if err != nil {
		hint := "Make sure Anki is running and the Card Browser is open"
		if envelope.Contains(err, "browser", "not open") {
			hint = "Card Browser is not open. Use guiBrowse to open it first."
		}
		return envelope.Failure(err, envelope.Fields{"hint": hint})
	}
	step(ctx, p, 100)

	if len(ids) == 0 {
		return envelope.Success(envelope.Fields{
			"noteIds":   []int64{},
			"noteCount": 0,
			"message":   "No notes are currently selected in the Card Browser",
			"hint":      "Open the Card Browser (guiBrowse) and select some cards/notes first.",
		})
	}
	return envelope.Success(envelope.Fields{
		"noteIds":   ids,
		"noteCount": len(ids),
		"message":   fmt.Sprintf("Retrieved %d selected note ID(s) from Card Browser", len(ids)),
		"hint":      "Use notesInfo to get details about these notes, or updateNoteFields/deleteNotes to modify them.",
	})
}

func (h *handlers) guiAddCards(ctx context.Context, in GUIAddCardsInput, p Progress) envelope.Envelope {
	note := in.Note
	if empty := emptyFields(note.Fields); len(note.Fields) == 0 || len(empty) > 0 {
		return envelope.Invalid("Fields cannot be empty", "Provide a value for every field of the note type",
			envelope.Fields{"emptyFields": empty, "modelName": note.ModelName})
	}
	fields := envelope.Fields{"deckName": note.DeckName, "modelName": note.ModelName}

	step(ctx, p, 25)
	noteID, err := ankiconnect.Call[int64](ctx, h.anki, "guiAddCards", map[string]any{
		"note": types.NewNote{
			DeckName:  note.DeckName,
			ModelName: note.ModelName,
			Fields:    note.Fields,
			Tags:      note.Tags,
		},
	})
	if err != nil {
		fields["hint"] = noteHint(err)
		return envelope.Failure(err, fields)
	}
	step(ctx, p, 75)

	fields["noteId"] = noteID
	fields["message"] = fmt.Sprintf("Add Cards dialog opened with a note for deck %q", note.DeckName)
	fields["hint"] = "The user can review and edit the note, then click Add to save it."
	step(ctx, p, 100)

	return envelope.Success(fields)
}

func (h *handlers) guiEditNote(ctx context.Context, in GUIEditNoteInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	if _, err := h.anki.Invoke(ctx, "guiEditNote", map[string]any{"note": in.Note}); err != nil {
		hint := "Make sure Anki is running and the note ID is valid"
		if envelope.Contains(err, "not found", "invalid") {
			hint = "Note not found. Use findNotes to search for notes and get valid note IDs."
		}
		return envelope.Failure(err, envelope.Fields{"noteId": in.Note, "hint": hint})
	}
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"noteId":  in.Note,
		"message": fmt.Sprintf("Note editor opened for note %d", in.Note),
		"hint":    "The user can now edit the note fields, tags, and cards in the Anki GUI. Changes will be saved when they close the editor.",
	})
}

func (h *handlers) guiCurrentCard(ctx context.Context, _ EmptyInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	card, err := ankiconnect.Call[*types.GUICurrentCard](ctx, h.anki, "guiCurrentCard", nil)
	if err != nil {
		return envelope.Failure(err, envelope.Fields{"hint": "Make sure Anki is running and the GUI is visible"})
	}
	step(ctx, p, 100)

	if card == nil {
		return envelope.Success(envelope.Fields{
			"cardInfo": nil,
			"inReview": false,
			"message":  "Not currently in review mode",
			"hint":     "Open a deck in Anki and start reviewing to see current card information.",
		})
	}
	return envelope.Success(envelope.Fields{
		"cardInfo": card,
		"inReview": true,
		"message":  fmt.Sprintf("Current card: %d from deck %q", card.CardID, card.DeckName),
		"hint":     "Use guiEditNote to edit the note associated with this card.",
	})
}

// reviewSide shows one side of the current review card.
func (h *handlers) reviewSide(ctx context.Context, p Progress, action, side, hint string) envelope.Envelope {
	step(ctx, p, 50)
	shown, err := ankiconnect.Call[bool](ctx, h.anki, action, nil)
	if err != nil {
		return envelope.Failure(err, envelope.Fields{"hint": "Make sure Anki is running, GUI is visible, and you are in review mode"})
	}
	step(ctx, p, 100)

	if !shown {
		return envelope.Success(envelope.Fields{
			"inReview": false,
			"message":  fmt.Sprintf("Not in review mode - %s cannot be shown", side),
			"hint":     "Start reviewing a deck in Anki to use this tool.",
		})
	}
	return envelope.Success(envelope.Fields{
		"inReview": true,
		"message":  strings.ToUpper(side[:1]) + side[1:] + " side is now displayed",
		"hint":     hint,
	})
}

func (h *handlers) guiShowQuestion(ctx context.Context, _ EmptyInput, p Progress) envelope.Envelope {
	return h.reviewSide(ctx, p, "guiShowQuestion", "question",
		"Use guiCurrentCard to get the card details, or guiShowAnswer to reveal the answer.")
}

func (h *handlers) guiShowAnswer(ctx context.Context, _ EmptyInput, p Progress) envelope.Envelope {
	return h.reviewSide(ctx, p, "guiShowAnswer", "answer",
		"Use guiCurrentCard to get full card details including the answer content.")
}

func (h *handlers) guiUndo(ctx context.Context, _ EmptyInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	undone, err := ankiconnect.Call[bool](ctx, h.anki, "guiUndo", nil)
	if err != nil {
		return envelope.Failure(err, envelope.Fields{"hint": "Make sure Anki is running and the GUI is visible"})
	}
	step(ctx, p, 100)

	if !undone {
		return envelope.Success(envelope.Fields{
			"undone":  false,
			"message": "Nothing to undo",
			"hint":    "There are no recent actions to undo in Anki.",
		})
	}
	return envelope.Success(envelope.Fields{
		"undone":  true,
		"message": "Last action undone successfully",
		"hint":    "The previous action has been reversed. Check Anki GUI to verify.",
	})
}

func (h *handlers) guiDeckOverview(ctx context.Context, in GUIDeckOverviewInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	opened, err := ankiconnect.Call[bool](ctx, h.anki, "guiDeckOverview", map[string]any{"name": in.Name})
	if err != nil {
		hint := "Make sure Anki is running and the deck name is correct"
		if envelope.Contains(err, "not found", "invalid") {
			hint = "Deck not found. Use list_decks to see available decks."
		}
		return envelope.Failure(err, envelope.Fields{"deckName": in.Name, "hint": hint})
	}
	step(ctx, p, 100)

	if !opened {
		return envelope.Invalid(fmt.Sprintf("Failed to open Deck Overview for deck %q", in.Name),
			"Deck not found or Anki GUI is not responding. Use list_decks to see available decks.",
			envelope.Fields{"deckName": in.Name})
	}
	return envelope.Success(envelope.Fields{
		"deckName": in.Name,
		"message":  fmt.Sprintf("Deck Overview opened for deck %q", in.Name),
		"hint":     "The deck statistics and study options are now visible in the Anki GUI.",
	})
}

func (h *handlers) guiDeckBrowser(ctx context.Context, _ EmptyInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	if _, err := h.anki.Invoke(ctx, "guiDeckBrowser", nil); err != nil {
		return envelope.Failure(err, envelope.Fields{"hint": "Make sure Anki is running and the GUI is visible"})
	}
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"message": "Deck Browser opened successfully",
		"hint":    "All decks are now visible in the Anki GUI. User can select a deck to study or manage.",
	})
}
