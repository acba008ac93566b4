package models

import "strings"

// Member is the authenticated identity driving an intake session.
// It is owned by the identity provider and never written by this service.
type Member struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Resolved reports whether the member carries a usable identity.
func (m *Member) Resolved() bool {
	return m != nil && strings.TrimSpace(m.ID) != ""
}

// FullName joins first and last name the way seller records store it.
func (m *Member) FullName() string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}
