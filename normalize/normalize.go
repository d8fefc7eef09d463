package normalize

import (
	"strings"
	"time"
)

// Phone strips all non-digit characters and keeps the last 10 digits.
// If fewer than 10 digits remain the normalized phone is undefined and the
// empty string is returned; such values are excluded from duplicate
// comparisons.
func Phone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if len(s) < 10 {
		return ""
	}
	return s[len(s)-10:]
}

// Email trims surrounding whitespace and lowercases the address.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Name trims surrounding whitespace. Case is preserved.
func Name(raw string) string {
	return strings.TrimSpace(raw)
}

// Contact is the normalized view of a candidate's contact fields.
type Contact struct {
	Phone string
	Email string
	Name  string
}

// Record is the minimal candidate shape the engine operates on.
type Record struct {
	ID        string
	RoleID    string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Apply normalizes all three contact fields. It is pure and idempotent:
// Apply(Apply(x)) == Apply(x).
func Apply(r Record) Contact {
	return Contact{
		Phone: Phone(r.Phone),
		Email: Email(r.Email),
		Name:  Name(r.Name),
	}
}

// Changed reports whether normalization would modify the stored record.
func Changed(r Record) bool {
	c := Apply(r)
	phone := c.Phone
	if phone == "" {
		// Undefined phones are left as stored.
		phone = r.Phone
	}
	return c.Email != r.Email || c.Name != r.Name || phone != r.Phone
}

// DuplicateGroup is a set of candidate records that collapse onto the same
// normalized identity within one role. Keeper is the earliest-created record;
// Losers are candidates for manual-review merge. Nothing is deleted or
// reassigned automatically.
type DuplicateGroup struct {
	Key    string
	Keeper Record
	Losers []Record
}

// FindDuplicates groups records by (role, normalized email) and separately by
// (role, normalized name, normalized phone) and reports every group with more
// than one member. Records whose normalized phone is undefined never match on
// the name+phone key.
func FindDuplicates(records []Record) []DuplicateGroup {
	byEmail := make(map[string][]Record)
	byNamePhone := make(map[string][]Record)

	for _, r := range records {
		c := Apply(r)
		if c.Email != "" {
			key := r.RoleID + "|email|" + c.Email
			byEmail[key] = append(byEmail[key], r)
		}
		if c.Phone != "" && c.Name != "" {
			key := r.RoleID + "|name_phone|" + c.Name + "|" + c.Phone
			byNamePhone[key] = append(byNamePhone[key], r)
		}
	}

	var groups []DuplicateGroup
	for key, members := range byEmail {
		if len(members) > 1 {
			groups = append(groups, buildGroup(key, members))
		}
	}
	for key, members := range byNamePhone {
		if len(members) > 1 {
			groups = append(groups, buildGroup(key, members))
		}
	}
	return groups
}

func buildGroup(key string, members []Record) DuplicateGroup {
	keeper := members[0]
	for _, m := range members[1:] {
		if m.CreatedAt.Before(keeper.CreatedAt) {
			keeper = m
		}
	}
	losers := make([]Record, 0, len(members)-1)
	for _, m := range members {
		if m.ID != keeper.ID {
			losers = append(losers, m)
		}
	}
	return DuplicateGroup{Key: key, Keeper: keeper, Losers: losers}
}
