package domain

// User is the acting principal resolved from the request's credentials.
// The service never creates or mutates users beyond recording that they
// scored something; identity is owned by the token issuer.
type User struct {
	ID       string
	Username string
}
