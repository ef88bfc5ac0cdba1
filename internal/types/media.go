package types

// StoreMediaParams is the storeMediaFile request. Exactly one of Data, Path
// and URL is set.
type StoreMediaParams struct {
	Filename       string `json:"filename"`
	Data           string `json:"data,omitempty"`
	Path           string `json:"path,omitempty"`
	URL            string `json:"url,omitempty"`
	DeleteExisting bool   `json:"deleteExisting"`
}

// Params returns the request as AnkiConnect params, leaving out unset
// sources.
func (s StoreMediaParams) Params() map[string]any {
	params := map[string]any{
		"filename":       s.Filename,
		"deleteExisting": s.DeleteExisting,
	}
	switch {
	case s.Data != "":
		params["data"] = s.Data
	case s.Path != "":
		params["path"] = s.Path
	case s.URL != "":
		params["url"] = s.URL
	}
	return params
}
