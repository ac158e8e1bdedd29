package requests

// Delete - request the removal of the snippet with the given id
type Delete struct {
	ID string `json:"id"`
}
