package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
	"github.com/taigrr/anki-mcp/internal/envelope"
	"github.com/taigrr/anki-mcp/internal/types"
)

// Media actions accepted by mediaActions.
const (
	MediaStore    = "storeMediaFile"
	MediaRetrieve = "retrieveMediaFile"
	MediaList     = "getMediaFilesNames"
	MediaDelete   = "deleteMediaFile"
)

func (h *handlers) mediaTools() []Tool {
	return []Tool{
		define("mediaActions", GroupMedia,
			"Manage files in Anki's media folder. storeMediaFile takes exactly one of data (base64), path or url; "+
				"retrieveMediaFile returns base64 contents; getMediaFilesNames lists files, optionally by glob pattern; "+
				"deleteMediaFile removes a file. Files starting with an underscore are kept even when unused.",
			h.mediaActions, enum("action", MediaStore, MediaRetrieve, MediaList, MediaDelete)),
	}
}

func (h *handlers) mediaActions(ctx context.Context, in MediaActionsInput, p Progress) envelope.Envelope {
	switch in.Action {
	case MediaStore:
		return h.storeMedia(ctx, in, p)
	case MediaRetrieve:
		return h.retrieveMedia(ctx, in, p)
	case MediaList:
		return h.listMedia(ctx, in, p)
	case MediaDelete:
		return h.deleteMedia(ctx, in, p)
	default:
		return envelope.Invalid(fmt.Sprintf("Unknown media action %q", in.Action),
			"Use one of storeMediaFile, retrieveMediaFile, getMediaFilesNames, deleteMediaFile", nil)
	}
}

func mediaFailure(action string, err error, fields envelope.Fields) envelope.Envelope {
	if fields == nil {
		fields = envelope.Fields{}
	}
	fields["mediaAction"] = action
	return envelope.Failure(err, fields)
}

func (h *handlers) storeMedia(ctx context.Context, in MediaActionsInput, p Progress) envelope.Envelope {
	sources := 0
	for _, s := range []string{in.Data, in.Path, in.URL} {
		if s != "" {
			sources++
		}
	}
	switch {
	case sources == 0:
		return mediaFailure(MediaStore, errors.New("Must provide either data, path, or url parameter"), nil)
	case sources > 1:
		return mediaFailure(MediaStore, errors.New("Cannot provide multiple sources (data, path, url). Choose one."), nil)
	case strings.TrimSpace(in.Filename) == "":
		return mediaFailure(MediaStore, errors.New("Filename cannot be empty"), nil)
	}

	params := types.StoreMediaParams{
		Filename:       in.Filename,
		Data:           in.Data,
		Path:           in.Path,
		URL:            in.URL,
		DeleteExisting: in.DeleteExisting == nil || *in.DeleteExisting,
	}

	step(ctx, p, 25)
	stored, err := ankiconnect.Call[string](ctx, h.anki, MediaStore, params.Params())
	if err != nil {
		return mediaFailure(MediaStore, err, envelope.Fields{"filename": in.Filename})
	}
	if stored == "" {
		return mediaFailure(MediaStore, errors.New("Failed to store media file"), envelope.Fields{"filename": in.Filename})
	}
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"filename":               stored,
		"message":                "Successfully stored media file: " + stored,
		"prefixedWithUnderscore": strings.HasPrefix(in.Filename, "_"),
	})
}

func (h *handlers) retrieveMedia(ctx context.Context, in MediaActionsInput, p Progress) envelope.Envelope {
	if strings.TrimSpace(in.Filename) == "" {
		return mediaFailure(MediaRetrieve, errors.New("Filename cannot be empty"), nil)
	}

	step(ctx, p, 50)
	raw, err := h.anki.Invoke(ctx, MediaRetrieve, map[string]any{"filename": in.Filename})
	if err != nil {
		return mediaFailure(MediaRetrieve, err, envelope.Fields{"filename": in.Filename})
	}
	step(ctx, p, 100)

	// AnkiConnect answers false for a missing file and a base64 string otherwise.
	var data string
	if err := json.Unmarshal(raw, &data); err != nil || data == "" {
		return envelope.Success(envelope.Fields{
			"filename": in.Filename,
			"data":     nil,
			"found":    false,
			"message":  "Media file not found: " + in.Filename,
		})
	}
	return envelope.Success(envelope.Fields{
		"filename": in.Filename,
		"data":     data,
		"found":    true,
		"message":  "Successfully retrieved media file: " + in.Filename,
	})
}

func (h *handlers) listMedia(ctx context.Context, in MediaActionsInput, p Progress) envelope.Envelope {
	params := map[string]any{}
	if in.Pattern != "" {
		params["pattern"] = in.Pattern
	}

	step(ctx, p, 50)
	files, err := ankiconnect.Call[[]string](ctx, h.anki, MediaList, params)
	if err != nil {
		return mediaFailure(MediaList, err, nil)
	}
	step(ctx, p, 100)

	if files == nil {
		files = []string{}
	}
	out := envelope.Fields{
		"files":   files,
		"count":   len(files),
		"message": fmt.Sprintf("Found %d media file(s)", len(files)),
	}
	if in.Pattern != "" {
		out["pattern"] = in.Pattern
		out["message"] = fmt.Sprintf("Found %d media file(s) matching pattern %q", len(files), in.Pattern)
	}
	return envelope.Success(out)
}

func (h *handlers) deleteMedia(ctx context.Context, in MediaActionsInput, p Progress) envelope.Envelope {
	if strings.TrimSpace(in.Filename) == "" {
		return mediaFailure(MediaDelete, errors.New("Filename cannot be empty"), nil)
	}

	step(ctx, p, 50)
	if _, err := h.anki.Invoke(ctx, MediaDelete, map[string]any{"filename": in.Filename}); err != nil {
		return mediaFailure(MediaDelete, err, envelope.Fields{"filename": in.Filename})
	}
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"filename": in.Filename,
		"message":  "Successfully deleted media file: " + in.Filename,
	})
}
