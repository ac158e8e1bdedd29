package responses

import (
	"github.com/dipin13k/code-snippets/snippet"
)

// Mutation - information about a collection mutation
type Mutation struct {
	// did it work or not
	Success bool `json:"success"`
	// this is for humans
	ErrorMessage string `json:"errorMessage"`
	// the resulting snippet, when the mutation produced one
	Snippet *snippet.Snippet `json:"snippet,omitempty"`
	Stats   Stats            `json:"stats"`
}
