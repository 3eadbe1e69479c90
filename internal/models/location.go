package models

// Location is a system the accounts of items live on. ChangerID names the
// registered password changer for the system; empty means none.
type Location struct {
	ID        string
	Name      string
	ChangerID string
}
