package requests

import (
	"github.com/dipin13k/code-snippets/snippet"
)

// Update - request a partial update of the snippet with the given id,
// absent patch fields keep their current value
type Update struct {
	ID string `json:"id"`
	snippet.Patch
}
