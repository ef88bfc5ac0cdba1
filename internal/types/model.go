package types

type (
	// CardTemplate is one card type of a note model.
	CardTemplate struct {
		Name  string `json:"Name" jsonschema:"Template name, e.g. Card 1"`
		Front string `json:"Front" jsonschema:"Front side template HTML, e.g. {{Front}}"`
		Back  string `json:"Back" jsonschema:"Back side template HTML, e.g. {{FrontSide}}<hr id=answer>{{Back}}"`
	}

	// ModelStyling is the modelStyling result.
	ModelStyling struct {
		CSS string `json:"css"`
	}

	// CSSInfo summarizes a model stylesheet.
	CSSInfo struct {
		Length          int   `json:"length"`
		HasCardStyling  bool  `json:"hasCardStyling"`
		HasFrontStyling bool  `json:"hasFrontStyling"`
		HasBackStyling  bool  `json:"hasBackStyling"`
		HasClozeStyling bool  `json:"hasClozeStyling"`
		HasRTLSupport   *bool `json:"hasRtlSupport,omitempty"`
	}

	// CommonModels reports which stock note types exist.
	CommonModels struct {
		Basic         *string `json:"basic"`
		BasicReversed *string `json:"basicReversed"`
		Cloze         *string `json:"cloze"`
	}
)
