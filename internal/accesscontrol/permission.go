package accesscontrol

import (
	"fmt"
	"strings"
)

// Permission is the level of access granted to an accessor.
type Permission int

const (
	// None revokes access. It is only meaningful for bulk replacement.
	None Permission = iota
	Read
	Modify
)

func (p Permission) String() string {
	switch p {
	case Read:
		return "R"
	case Modify:
		return "RM"
	default:
		return "NONE"
	}
}

func (p Permission) AllowsModify() bool {
	return p == Modify
}

// ParsePermission accepts the short forms R, RM and the long forms READ,
// MODIFY, NONE, case-insensitively. An empty string is None.
func ParsePermission(s string) (Permission, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE", "N":
		return None, nil
	case "R", "READ":
		return Read, nil
	case "RM", "MODIFY", "M":
		return Modify, nil
	}
	return None, fmt.Errorf("unknown permission %q", s)
}
