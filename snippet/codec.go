package snippet

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Indent for the canonical collection serialization
const Indent = "  "

// Encode serializes a collection in its canonical form, a two space
// indented JSON array. The backend slot and the export format are the same
// bytes.
func Encode(snippets []Snippet) ([]byte, error) {
	if snippets == nil {
		snippets = []Snippet{}
	}
	data, err := json.MarshalIndent(snippets, "", Indent)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode snippet collection")
	}
	return data, nil
}

// Decode parses a serialized collection. It accepts the canonical indented
// form as well as compact JSON, the parser does not depend on whitespace.
// Anything but an array of objects is an error.
func Decode(data []byte) ([]Snippet, error) {
	var snippets []Snippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, errors.Wrap(err, "failed to decode snippet collection")
	}
	for i := range snippets {
		if snippets[i].Tags == nil {
			snippets[i].Tags = []string{}
		}
	}
	return snippets, nil
}
