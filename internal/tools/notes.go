package tools

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
	"github.com/taigrr/anki-mcp/internal/envelope"
	"github.com/taigrr/anki-mcp/internal/types"
)

// maxBatch is the largest id list a single tool call accepts.
const maxBatch = 100

const largeResultSet = 100

func (h *handlers) noteTools() []Tool {
	return []Tool{
		define("addNote", GroupNotes,
			"Add a new note to a deck. Use modelFieldNames first to get the field names of the note type.",
			h.addNote, minLength("deckName", 1), minLength("modelName", 1)),
		define("findNotes", GroupNotes,
			`Search for notes with Anki query syntax, e.g. "deck:Spanish", "tag:verbs", "is:due", "added:7". Returns note IDs.`,
			h.findNotes, readOnly()),
		define("notesInfo", GroupNotes,
			"Get fields, tags, note type and card IDs of up to 100 notes.",
			h.notesInfo, readOnly(), minItems("notes", 1)),
		define("updateNoteFields", GroupNotes,
			"Change field values of an existing note. Only the given fields are modified.",
			h.updateNoteFields),
		define("deleteNotes", GroupNotes,
			"Permanently delete up to 100 notes and all their cards. Requires confirmDeletion=true. This cannot be undone.",
			h.deleteNotes, minItems("notes", 1)),
	}
}

// tooMany rejects id lists over maxBatch and echoes them back.
func tooMany(ids []int64) (envelope.Envelope, bool) {
	if len(ids) <= maxBatch {
		return nil, false
	}
	return envelope.Invalid(
		fmt.Sprintf("Too many notes requested: %d (maximum is %d per call)", len(ids), maxBatch),
		"Split the note IDs into batches of 100 or fewer",
		envelope.Fields{"requestedNotes": ids, "requestedCount": len(ids), "maxBatch": maxBatch},
	), true
}

// emptyFields returns the names of fields whose value is blank, sorted.
func emptyFields(fields map[string]string) []string {
	var empty []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			empty = append(empty, name)
		}
	}
	slices.Sort(empty)
	return empty
}

func (h *handlers) addNote(ctx context.Context, in AddNoteInput, p Progress) envelope.Envelope {
	if len(in.Fields) == 0 {
		return envelope.Invalid("Fields cannot be empty", "Use modelFieldNames to get the field names of the note type",
			envelope.Fields{"modelName": in.ModelName})
	}
	if empty := emptyFields(in.Fields); len(empty) > 0 {
		return envelope.Invalid("Fields cannot be empty", "Provide a value for every field, or leave optional fields out",
			envelope.Fields{"emptyFields": empty, "modelName": in.ModelName})
	}

	note := types.NewNote{
		DeckName:  in.DeckName,
		ModelName: in.ModelName,
		Fields:    in.Fields,
		Tags:      in.Tags,
	}
	if in.AllowDuplicate || in.DuplicateScope != "" {
		note.Options = &types.NoteOptions{AllowDuplicate: in.AllowDuplicate, DuplicateScope: in.DuplicateScope}
	}
	fields := envelope.Fields{"deckName": in.DeckName, "modelName": in.ModelName}

	step(ctx, p, 25)
	noteID, err := ankiconnect.Call[int64](ctx, h.anki, "addNote", map[string]any{"note": note})
	if err != nil {
		fields["hint"] = noteHint(err)
		return envelope.Failure(err, fields)
	}
	if noteID == 0 {
		return envelope.Failure(errors.New("Failed to add note - AnkiConnect returned no note ID"), fields)
	}
	step(ctx, p, 75)

	fields["noteId"] = noteID
	fields["message"] = fmt.Sprintf("Successfully added note to deck %q", in.DeckName)
	fields["hint"] = "Use notesInfo to inspect the note or guiEditNote to open it in Anki"
	step(ctx, p, 100)

	return envelope.Success(fields)
}

// noteHint picks a remediation for a failed note creation.
func noteHint(err error) string {
	notFound := envelope.Contains(err, "not found")
	switch {
	case envelope.Contains(err, "duplicate"):
		return "A note with the same first field already exists. Set allowDuplicate to true to add it anyway."
	case envelope.Contains(err, "field"):
		return "Field names do not match the note type. Use modelFieldNames to get the correct field names."
	case notFound && envelope.Contains(err, "model"):
		return "Note type not found. Use modelNames to see available note types."
	case notFound && envelope.Contains(err, "deck"):
		return "Deck not found. Use list_decks to see available decks, or create_deck to create it."
	default:
		return "Make sure Anki is running and the deck and note type exist"
	}
}

func (h *handlers) findNotes(ctx context.Context, in FindNotesInput, p Progress) envelope.Envelope {
	step(ctx, p, 25)
	ids, err := ankiconnect.Call[[]int64](ctx, h.anki, "findNotes", map[string]any{"query": in.Query})
	if err != nil {
		hint := "Make sure Anki is running and AnkiConnect is installed"
		if envelope.Contains(err, "invalid query", "query", "syntax") {
			hint = `Invalid query syntax. Examples: "deck:DeckName" - all notes in a deck, "tag:tagname" - notes with a tag, ` +
				`"is:due" - due cards, "added:7" - added in the last 7 days, "front:text" - search a field`
		}
		return envelope.Failure(err, envelope.Fields{"query": in.Query, "hint": hint})
	}
	step(ctx, p, 75)

	if ids == nil {
		ids = []int64{}
	}
	out := envelope.Fields{
		"noteIds": ids,
		"count":   len(ids),
		"query":   in.Query,
		"message": fmt.Sprintf("Found %d notes matching the query", len(ids)),
	}
	switch {
	case len(ids) == 0:
		out["message"] = "No notes found matching the search criteria"
		out["hint"] = "Try a broader search query or check the deck and tag names"
	case len(ids) > largeResultSet:
		out["hint"] = fmt.Sprintf("Large result set (%d notes). Consider using notesInfo with smaller batches of up to %d IDs.", len(ids), maxBatch)
	}
	step(ctx, p, 100)

	return envelope.Success(out)
}

// lookupNotes runs notesInfo and splits the request into found and missing
// ids, keeping the requested order.
func (h *handlers) lookupNotes(ctx context.Context, ids []int64) (found []types.NoteInfo, missing []int64, err error) {
	infos, err := ankiconnect.Call[[]*types.NoteInfo](ctx, h.anki, "notesInfo", map[string]any{"notes": ids})
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[int64]types.NoteInfo, len(infos))
	for _, info := range infos {
		if info != nil && info.NoteID != 0 {
			byID[info.NoteID] = *info
		}
	}
	for _, id := range ids {
		if info, ok := byID[id]; ok {
			found = append(found, info)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

func (h *handlers) notesInfo(ctx context.Context, in NoteIDsInput, p Progress) envelope.Envelope {
	if env, rejected := tooMany(in.Notes); rejected {
		return env
	}

	step(ctx, p, 25)
	found, missing, err := h.lookupNotes(ctx, in.Notes)
	if err != nil {
		return envelope.Failure(err, envelope.Fields{"requestedNotes": in.Notes})
	}
	step(ctx, p, 75)

	if found == nil {
		found = []types.NoteInfo{}
	}
	out := envelope.Fields{
		"notes":   found,
		"count":   len(found),
		"message": fmt.Sprintf("Retrieved information for %d note(s)", len(found)),
	}
	if len(missing) > 0 {
		out["notFound"] = missing
		out["notFoundCount"] = len(missing)
		out["hint"] = "Some notes were not found. They may have been deleted; use findNotes to get current note IDs."
	}
	step(ctx, p, 100)

	return envelope.Success(out)
}

func (h *handlers) updateNoteFields(ctx context.Context, in UpdateNoteFieldsInput, p Progress) envelope.Envelope {
	id := in.Note.ID
	if len(in.Note.Fields) == 0 {
		return envelope.Invalid("No fields to update", "Pass at least one field name and its new value",
			envelope.Fields{"noteId": id})
	}

	step(ctx, p, 25)
	found, _, err := h.lookupNotes(ctx, []int64{id})
	if err != nil {
		return envelope.Failure(err, envelope.Fields{"noteId": id})
	}
	if len(found) == 0 {
		return envelope.Invalid(fmt.Sprintf("Note %d not found", id),
			"Use findNotes to search for notes and get valid note IDs", envelope.Fields{"noteId": id})
	}
	current := found[0]

	valid := current.FieldNames()
	var unknown []string
	for name := range in.Note.Fields {
		if !slices.Contains(valid, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return envelope.Invalid(fmt.Sprintf("Invalid field name(s): %s", strings.Join(unknown, ", ")),
			"Use one of the note's existing field names", envelope.Fields{
				"noteId":        id,
				"modelName":     current.ModelName,
				"invalidFields": unknown,
				"validFields":   valid,
			})
	}
	step(ctx, p, 50)

	_, err = h.anki.Invoke(ctx, "updateNoteFields", map[string]any{
		"note": types.NoteUpdate{ID: id, Fields: in.Note.Fields},
	})
	if err != nil {
		return envelope.Failure(err, envelope.Fields{
			"noteId": id,
			"hint":   "Make sure Anki is running and the note is not being edited in another window",
		})
	}
	step(ctx, p, 100)

	updated := slices.Sorted(maps.Keys(in.Note.Fields))
	var changed []string
	for _, name := range updated {
		if current.Fields[name].Value != in.Note.Fields[name] {
			changed = append(changed, name)
		}
	}
	if changed == nil {
		changed = []string{}
	}

	return envelope.Success(envelope.Fields{
		"noteId":        id,
		"modelName":     current.ModelName,
		"updatedFields": updated,
		"changedFields": changed,
		"message":       fmt.Sprintf("Successfully updated %d field(s) of note %d", len(updated), id),
		"warning":       "If the note is open in the Anki browser, the new values may not appear until another note is selected",
	})
}

func (h *handlers) deleteNotes(ctx context.Context, in DeleteNotesInput, p Progress) envelope.Envelope {
	if env, rejected := tooMany(in.Notes); rejected {
		return env
	}
	if !in.ConfirmDeletion {
		return envelope.Invalid("Deletion not confirmed",
			"Set confirmDeletion to true to permanently delete these notes",
			envelope.Fields{
				"requestedNotes": in.Notes,
				"noteCount":      len(in.Notes),
				"warning":        "This action cannot be undone! The notes and all their cards will be permanently deleted.",
			})
	}

	step(ctx, p, 25)
	found, missing, err := h.lookupNotes(ctx, in.Notes)
	if err != nil {
		return h.deleteFailure(err, in.Notes)
	}
	step(ctx, p, 50)

	if len(found) == 0 {
		step(ctx, p, 100)
		return envelope.Success(envelope.Fields{
			"deletedCount":  0,
			"notFoundCount": len(missing),
			"requestedIds":  in.Notes,
			"message":       "No notes were deleted - none of the requested notes exist",
			"hint":          "The notes may have already been deleted. Use findNotes to get current note IDs.",
		})
	}

	ids := make([]int64, 0, len(found))
	cards := 0
	for _, note := range found {
		ids = append(ids, note.NoteID)
		cards += len(note.Cards)
	}

	if _, err := h.anki.Invoke(ctx, "deleteNotes", map[string]any{"notes": ids}); err != nil {
		return h.deleteFailure(err, in.Notes)
	}
	step(ctx, p, 100)

	message := fmt.Sprintf("Successfully deleted %d note(s) and %d card(s)", len(ids), cards)
	if len(missing) > 0 {
		message += fmt.Sprintf(". %d note(s) were not found", len(missing))
	}

	return envelope.Success(envelope.Fields{
		"deletedCount":   len(ids),
		"deletedNoteIds": ids,
		"cardsDeleted":   cards,
		"notFoundCount":  len(missing),
		"requestedIds":   in.Notes,
		"message":        message,
		"warning":        "These notes and their cards have been permanently deleted",
		"hint":           "Consider syncing with AnkiWeb to propagate the deletion to other devices",
	})
}

func (h *handlers) deleteFailure(err error, ids []int64) envelope.Envelope {
	hint := "Make sure Anki is running and AnkiConnect is installed"
	if envelope.Contains(err, "permission") {
		hint = "Check if Anki allows deletions and that the AnkiConnect API key is correct"
	}
	return envelope.Failure(err, envelope.Fields{"requestedNotes": ids, "hint": hint})
}
