package model

// Identity is the resolved caller of a request. Absence of an identity is a
// normal outcome of session resolution, not an error.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
