package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
	"github.com/taigrr/anki-mcp/internal/cardcontent"
	"github.com/taigrr/anki-mcp/internal/envelope"
	"github.com/taigrr/anki-mcp/internal/logging"
	"github.com/taigrr/anki-mcp/internal/types"
)

const (
	defaultDueLimit = 10
	maxDueLimit     = 50
	maxDeckLevels   = 2

	deckNameHint = "Use at most one '::' separator (Parent::Child) and no empty parts"
)

func (h *handlers) reviewTools() []Tool {
	return []Tool{
		define("sync", GroupReview,
			"Synchronize the local Anki collection with AnkiWeb. Run this at the start and end of a review session.",
			h.sync),
		define("list_decks", GroupReview,
			"List all available Anki decks, optionally with statistics. Remember to sync first at the start of a review session for latest data.",
			h.listDecks, readOnly()),
		define("create_deck", GroupReview,
			`Create a new empty Anki deck. Use "::" for a parent::child structure (at most 2 levels). Creating a deck that already exists succeeds without changes.`,
			h.createDeck, minLength("deck_name", 1)),
		define("get_due_cards", GroupReview,
			"Retrieve cards that are due for review, optionally limited to one deck.",
			h.getDueCards, readOnly(), intRange("limit", 1, maxDueLimit)),
		define("present_card", GroupReview,
			"Show a card for review. The answer is only included when show_answer is true.",
			h.presentCard, readOnly()),
		define("rate_card", GroupReview,
			"Record the user's answer for a card: 1 = Again, 2 = Hard, 3 = Good, 4 = Easy.",
			h.rateCard, intRange("rating", 1, 4)),
	}
}

func (h *handlers) sync(ctx context.Context, _ EmptyInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	if _, err := h.anki.Invoke(ctx, "sync", nil); err != nil {
		return envelope.Failure(err, envelope.Fields{
			"hint": "Make sure Anki is running and you are logged in to AnkiWeb",
		})
	}
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"message": "Successfully synchronized with AnkiWeb",
	})
}

func (h *handlers) listDecks(ctx context.Context, in ListDecksInput, p Progress) envelope.Envelope {
	log := logging.From(ctx, h.logger)
	step(ctx, p, 10)

	names, err := ankiconnect.Call[[]string](ctx, h.anki, "deckNames", nil)
	if err != nil {
		return envelope.Failure(err, nil)
	}
	if len(names) == 0 {
		step(ctx, p, 100)
		return envelope.Success(envelope.Fields{
			"message": "No decks found in Anki",
			"decks":   []types.DeckInfo{},
		})
	}
	step(ctx, p, 50)

	decks := make([]types.DeckInfo, 0, len(names))
	for _, name := range names {
		decks = append(decks, types.DeckInfo{Name: name})
	}

	fields := envelope.Fields{}
	if in.IncludeStats {
		raw, err := ankiconnect.Call[map[string]types.RawDeckStats](ctx, h.anki, "getDeckStats", map[string]any{"decks": names})
		if err != nil {
			return envelope.Failure(err, nil)
		}
		byName := make(map[string]types.RawDeckStats, len(raw))
		for _, s := range raw {
			byName[s.Name] = s
		}

		var summary types.DeckSummary
		for i := range decks {
			if s, ok := byName[decks[i].Name]; ok {
				decks[i].Stats = s.Stats(decks[i].Name)
				summary.Add(decks[i].Stats)
			}
		}
		fields["summary"] = summary
	}
	step(ctx, p, 100)

	log.Debug("listed decks", "count", len(decks), "stats", in.IncludeStats)
	fields["decks"] = decks
	fields["total"] = len(decks)
	fields["message"] = fmt.Sprintf("Found %d deck(s)", len(decks))
	return envelope.Success(fields)
}

func (h *handlers) createDeck(ctx context.Context, in CreateDeckInput, p Progress) envelope.Envelope {
	name := in.DeckName
	parts := strings.Split(name, "::")
	if len(parts) > maxDeckLevels {
		return envelope.Invalid("Deck name can have maximum 2 levels (parent::child)", deckNameHint, envelope.Fields{
			"deckName":  name,
			"levels":    len(parts),
			"maxLevels": maxDeckLevels,
		})
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return envelope.Invalid("Deck name parts cannot be empty", deckNameHint, envelope.Fields{"deckName": name})
		}
	}

	failure := func(err error) envelope.Envelope {
		if envelope.Contains(err, "already exists") {
			return deckExists(name)
		}
		return envelope.Failure(err, envelope.Fields{
			"deckName": name,
			"hint":     "Make sure Anki is running and the deck name is valid",
		})
	}

	// createDeck answers a duplicate with the existing deck's id, so it cannot
	// tell a new deck from an old one.
	step(ctx, p, 25)
	existing, err := ankiconnect.Call[[]string](ctx, h.anki, "deckNames", nil)
	if err != nil {
		return failure(err)
	}
	if slices.Contains(existing, name) {
		step(ctx, p, 100)
		return deckExists(name)
	}

	deckID, err := ankiconnect.Call[int64](ctx, h.anki, "createDeck", map[string]any{"deck": name})
	if err != nil {
		return failure(err)
	}
	step(ctx, p, 75)

	if deckID == 0 {
		existing, err := ankiconnect.Call[[]string](ctx, h.anki, "deckNames", nil)
		if err != nil {
			return failure(err)
		}
		step(ctx, p, 100)
		if slices.Contains(existing, name) {
			return deckExists(name)
		}
		return envelope.Failure(errors.New("Failed to create deck - unknown error"), envelope.Fields{"deckName": name})
	}
	step(ctx, p, 100)

	fields := envelope.Fields{
		"deckId":   deckID,
		"deckName": name,
		"created":  true,
		"message":  fmt.Sprintf("Successfully created deck %q", name),
	}
	if len(parts) == 2 {
		fields["parentDeck"] = parts[0]
		fields["childDeck"] = parts[1]
		fields["message"] = fmt.Sprintf("Successfully created parent deck %q and child deck %q", parts[0], parts[1])
	}
	return envelope.Success(fields)
}

func deckExists(name string) envelope.Envelope {
	return envelope.Success(envelope.Fields{
		"message":  fmt.Sprintf("Deck %q already exists", name),
		"deckName": name,
		"created":  false,
		"exists":   true,
	})
}

func (h *handlers) getDueCards(ctx context.Context, in GetDueCardsInput, p Progress) envelope.Envelope {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultDueLimit
	}
	limit = min(limit, maxDueLimit)

	query := "is:due"
	if in.DeckName != "" {
		query = fmt.Sprintf("%q is:due", "deck:"+in.DeckName)
	}

	fail := func(err error) envelope.Envelope {
		return envelope.Failure(err, envelope.Fields{"deckName": in.DeckName, "query": query})
	}

	step(ctx, p, 25)
	ids, err := ankiconnect.Call[[]int64](ctx, h.anki, "findCards", map[string]any{"query": query})
	if err != nil {
		return fail(err)
	}
	if len(ids) == 0 {
		step(ctx, p, 100)
		return envelope.Success(envelope.Fields{
			"cards":    []types.SimplifiedCard{},
			"total":    0,
			"returned": 0,
			"message":  "No cards are due for review",
			"hint":     "Great job! Sync with AnkiWeb or pick another deck to keep studying.",
		})
	}
	step(ctx, p, 75)

	batch := ids[:min(limit, len(ids))]
	infos, err := ankiconnect.Call[[]types.CardInfo](ctx, h.anki, "cardsInfo", map[string]any{"cards": batch})
	if err != nil {
		return fail(err)
	}

	cards := make([]types.SimplifiedCard, 0, len(infos))
	for _, info := range infos {
		if info.CardID == 0 {
			continue
		}
		front, back := cardcontent.Extract(info.Fields)
		cards = append(cards, types.SimplifiedCard{
			CardID:    info.CardID,
			Front:     front,
			Back:      back,
			DeckName:  info.DeckName,
			ModelName: info.ModelName,
			Due:       info.Due,
			Interval:  info.Interval,
			Factor:    info.Factor,
			Type:      info.Type.String(),
		})
	}
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"cards":    cards,
		"total":    len(ids),
		"returned": len(cards),
		"message":  fmt.Sprintf("Found %d due card(s), returning %d", len(ids), len(cards)),
	})
}

func (h *handlers) presentCard(ctx context.Context, in PresentCardInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	infos, err := ankiconnect.Call[[]types.CardInfo](ctx, h.anki, "cardsInfo", map[string]any{"cards": []int64{in.CardID}})
	if err != nil {
		return envelope.Failure(err, envelope.Fields{"cardId": in.CardID})
	}
	if len(infos) == 0 || infos[0].CardID == 0 {
		return envelope.Invalid(fmt.Sprintf("Card %d not found", in.CardID),
			"Use get_due_cards to find cards that are available for review", envelope.Fields{"cardId": in.CardID})
	}
	step(ctx, p, 100)

	info := infos[0]
	front, back := cardcontent.Extract(info.Fields)
	card := types.CardPresentation{
		CardID:          info.CardID,
		Front:           front,
		DeckName:        info.DeckName,
		ModelName:       info.ModelName,
		Tags:            info.Tags,
		CurrentInterval: info.Interval,
		EaseFactor:      info.Factor,
		Reviews:         info.Reps,
		Lapses:          info.Lapses,
		CardType:        info.Type.String(),
		NoteID:          info.Note,
	}
	if card.Tags == nil {
		card.Tags = []string{}
	}

	hint := "Ask the user to answer, then call present_card with show_answer=true"
	if in.ShowAnswer {
		card.Back = back
		hint = "Ask the user how well they recalled the card, then call rate_card"
	}

	return envelope.Success(envelope.Fields{
		"card":     card,
		"interval": cardcontent.FormatInterval(float64(info.Interval)),
		"message":  fmt.Sprintf("Presenting card %d from deck %q", info.CardID, info.DeckName),
		"hint":     hint,
	})
}

func (h *handlers) rateCard(ctx context.Context, in RateCardInput, p Progress) envelope.Envelope {
	rating := types.Rating(in.Rating)
	fields := envelope.Fields{"cardId": in.CardID, "rating": in.Rating}

	step(ctx, p, 50)
	results, err := ankiconnect.Call[[]bool](ctx, h.anki, "answerCards", map[string]any{
		"answers": []types.CardAnswer{{CardID: in.CardID, Ease: rating}},
	})
	if err != nil {
		return envelope.Failure(err, fields)
	}
	if len(results) == 0 || !results[0] {
		fields["hint"] = "Make sure the card exists and is not suspended. Use get_due_cards to find reviewable cards."
		return envelope.Failure(fmt.Errorf("Failed to rate card %d", in.CardID), fields)
	}
	step(ctx, p, 100)

	fields["ratingDescription"] = rating.Description()
	fields["message"] = fmt.Sprintf("Card %d rated as %s", in.CardID, rating.Description())
	return envelope.Success(fields)
}
