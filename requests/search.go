package requests

// Search - request all snippets matching the query, an empty query matches
// the whole collection
type Search struct {
	Query string `json:"query"`
}
