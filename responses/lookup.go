package responses

import (
	"github.com/dipin13k/code-snippets/snippet"
)

// Lookup - result of a getById request, a missing snippet is not an error
type Lookup struct {
	Found   bool             `json:"found"`
	Snippet *snippet.Snippet `json:"snippet,omitempty"`
}
