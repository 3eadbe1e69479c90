package models

// AdminUserID is the id of the built-in administrator account.
const AdminUserID = "0"

// User is a person who can log in. The user's symmetric access key is stored
// twice: sealed under the key derived from the login password, and sealed
// under the admin group's key so administrators can act on the user's behalf.
type User struct {
	ID       string
	Name     string
	Enabled  bool
	Salt     []byte
	Verifier []byte
	LoginKey []byte
	AdminKey []byte
}

type Group struct {
	ID      string
	Name    string
	Enabled bool
}

// Membership links a user to a group. GroupKey is the group's access key
// sealed under the member's access key with the IV derived from the group id.
type Membership struct {
	UserID   string
	GroupID  string
	GroupKey []byte
}
