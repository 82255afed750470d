package session

import "strings"

// Role is the coarse permission level of a panel user
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// roleRanks orders the closed set of roles: a role satisfies any requirement whose
// rank is less than or equal to its own
var roleRanks = map[Role]int{
	RoleAdmin:  3,
	RoleEditor: 2,
	RoleViewer: 1,
}

// editorAliases are legacy role names, matched as substrings, that are folded into
// RoleEditor
var editorAliases = []string{"REDACTOR", "AUTHOR", "WRITER", "AUTOR", "MOD"}

// ParseRole normalizes an arbitrary role string into the closed set of roles. It
// never fails: strings that match nothing known resolve to RoleViewer.
func ParseRole(s string) Role {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if strings.Contains(upper, string(RoleAdmin)) {
		return RoleAdmin
	}
	if strings.Contains(upper, string(RoleEditor)) {
		return RoleEditor
	}
	for _, alias := range editorAliases {
		if strings.Contains(upper, alias) {
			return RoleEditor
		}
	}
	return RoleViewer
}

// Rank returns the position of the role in the hierarchy, or 0 for a role outside the
// closed set
func (r Role) Rank() int {
	return roleRanks[r]
}

// Satisfies reports whether a user holding r may access something that accepts any
// of the required roles. An empty requirement only asks for authentication.
func (r Role) Satisfies(required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	minRank := -1
	for _, req := range required {
		folded := ParseRole(string(req))
		if folded == r {
			return true
		}
		if minRank < 0 || folded.Rank() < minRank {
			minRank = folded.Rank()
		}
	}
	return r.Rank() >= minRank
}

// IsAdminOnly reports whether a requirement names administrators and nobody else
func IsAdminOnly(required []Role) bool {
	return len(required) == 1 && required[0] == RoleAdmin
}
