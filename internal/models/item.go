// Package models defines the records persisted by the vault repositories.
package models

import "time"

// Item is a stored secret. Data holds the item properties sealed with the
// item's modify key; only holders of the read key can open it.
type Item struct {
	ID string
	// ParentID is the hierarchy node the item sits under.
	ParentID   string
	LocationID string
	Enabled    bool
	Data       []byte
}

// ItemProperties is the decrypted content of Item.Data.
type ItemProperties struct {
	Username string            `json:"username"`
	Password string            `json:"password"`
	Notes    string            `json:"notes,omitempty"`
	Expiry   *time.Time        `json:"expiry,omitempty"`
	Custom   map[string]string `json:"custom,omitempty"`
}
