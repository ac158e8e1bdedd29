package requests

// List - query the whole collection
type List struct{}

// Tags - query the distinct tags of the collection
type Tags struct{}

// Export - download the whole collection
type Export struct{}
