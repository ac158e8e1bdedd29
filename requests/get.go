package requests

// Get - request a single snippet by its id
type Get struct {
	// this one should be obvious
	ID string `json:"id"`
}
