package model

// User identifies the operator behind an authenticated admin request.
// Admin auth is a static bearer token; the user exists so handlers and
// review notes can attribute actions to someone.
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}
