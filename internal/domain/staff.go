package domain

import "strings"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "admin"
	StaffRoleManager StaffRole = "manager"
	StaffRoleSales   StaffRole = "sales"
)

// ParseStaffRole lower-cases and trims a role claim.
func ParseStaffRole(raw string) StaffRole {
	return StaffRole(strings.ToLower(strings.TrimSpace(raw)))
}

// RosterSource names the roster a directory entry came from.
type RosterSource string

const (
	RosterAssignable RosterSource = "roster-A"
	RosterProfiles   RosterSource = "roster-B"
)

// RosterEntry is a staff record as fetched from either roster, before merge.
type RosterEntry struct {
	ID       Ref    `json:"id"`
	LegacyID Ref    `json:"_id"`
	UserID   Ref    `json:"userId"`
	User     Ref    `json:"user"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Image    string `json:"image"`
	Role     string `json:"role"`
}

// OwnID returns the entry's own identifier.
func (e RosterEntry) OwnID() string {
	if id := e.ID.ID(); id != "" {
		return id
	}
	return e.LegacyID.ID()
}

// LinkedID returns the linked account identifier, if any.
func (e RosterEntry) LinkedID() string {
	if id := e.UserID.ID(); id != "" {
		return id
	}
	return e.User.ID()
}

// DisplayName picks the first non-empty name field.
func (e RosterEntry) DisplayName() string {
	for _, candidate := range []string{e.Name, e.FullName, e.User.Field("name"), e.Email} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

// AvatarRef picks the first non-empty avatar field.
func (e RosterEntry) AvatarRef() string {
	if e.Avatar != "" {
		return e.Avatar
	}
	return e.Image
}

// Staff is a canonical directory entry after the roster merge.
type Staff struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Email  string       `json:"email,omitempty"`
	Avatar string       `json:"avatar,omitempty"`
	Role   string       `json:"role,omitempty"`
	Source RosterSource `json:"source"`
}
