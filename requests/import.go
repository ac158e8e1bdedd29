package requests

// Import - request the wholesale replacement of the collection with
// previously exported data
type Import struct {
	// the exported collection, pretty or compact JSON
	Data string `json:"data"`
}
