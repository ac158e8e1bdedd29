package requests

import (
	"github.com/dipin13k/code-snippets/snippet"
)

// Add - request the creation of a snippet, the field constraints of
// snippet.Fields apply
type Add struct {
	snippet.Fields
}
