package responses

type Stats struct {
	NumberOfSnippets int `json:"numberOfSnippets"`
	// seconds
	OwnRuntime float64 `json:"ownRuntime"`
}
