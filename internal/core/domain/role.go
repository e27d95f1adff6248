package domain

import (
	"encoding/json"
	"strings"
)

// Role is one of the five fixed community ranks, ordered lowest to highest.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleBasic     Role = "basic"
	RoleAdvanced  Role = "advanced"
	RoleModerator Role = "moderator"
	RoleOwner     Role = "owner"
)

// roleLevels defines the total order over roles. Unknown roles are absent and
// resolve to the lowest level.
var roleLevels = map[Role]int{
	RoleGuest:     1,
	RoleBasic:     2,
	RoleAdvanced:  3,
	RoleModerator: 4,
	RoleOwner:     5,
}

const (
	LevelGuest     = 1
	LevelBasic     = 2
	LevelAdvanced  = 3
	LevelModerator = 4
	LevelOwner     = 5
)

// Level returns the role's position in the hierarchy. An unknown or empty
// role maps to the lowest level, never an elevated one.
func (r Role) Level() int {
	if lvl, ok := roleLevels[r]; ok {
		return lvl
	}
	return LevelGuest
}

// HasMinimumLevel reports whether the role sits at or above the required level.
func (r Role) HasMinimumLevel(required int) bool {
	return r.Level() >= required
}

// IsModerator reports whether the role has moderator powers (level 4+).
func (r Role) IsModerator() bool {
	return r.HasMinimumLevel(LevelModerator)
}

// IsOwner reports whether the role is the top rank.
func (r Role) IsOwner() bool {
	return r.HasMinimumLevel(LevelOwner)
}

// ParseRole normalizes a stored role string. Unknown values degrade to
// RoleGuest so a corrupted or legacy role can never grant elevated access.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleLevels[r]; ok {
		return r
	}
	return RoleGuest
}

// ValidRole reports whether s names one of the five roles exactly.
func ValidRole(s string) bool {
	_, ok := roleLevels[Role(s)]
	return ok
}

// AllRoles lists every role in ascending level order.
func AllRoles() []Role {
	return []Role{RoleGuest, RoleBasic, RoleAdvanced, RoleModerator, RoleOwner}
}

// RoleInfo is the display metadata attached to a rank.
type RoleInfo struct {
	ID          Role   `json:"id"`
	Level       int    `json:"level"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var roleInfos = map[Role]RoleInfo{
	RoleGuest:     {ID: RoleGuest, Level: 1, Name: "Guest", Description: "Can read posts"},
	RoleBasic:     {ID: RoleBasic, Level: 2, Name: "Member", Description: "Can comment and like posts"},
	RoleAdvanced:  {ID: RoleAdvanced, Level: 3, Name: "Contributor", Description: "Can create new posts"},
	RoleModerator: {ID: RoleModerator, Level: 4, Name: "Moderator", Description: "Can pin posts and moderate"},
	RoleOwner:     {ID: RoleOwner, Level: 5, Name: "Owner", Description: "Full administrative powers"},
}

// Info returns the display metadata for the role, falling back to guest
// metadata for unknown roles.
func (r Role) Info() RoleInfo {
	if info, ok := roleInfos[r]; ok {
		return info
	}
	return roleInfos[RoleGuest]
}

// Permission is one of the fixed keys callers pass into HasPermission.
type Permission string

const (
	PermComment       Permission = "comment"
	PermCreateContent Permission = "createContent"
	PermPin           Permission = "pin"
	PermModerate      Permission = "moderate"
	PermFullAdmin     Permission = "fullAdmin"
)

// permissionLevels maps each permission key to the minimum role level that
// grants it. A lookup table, not a rule engine.
var permissionLevels = map[Permission]int{
	PermComment:       LevelBasic,
	PermCreateContent: LevelAdvanced,
	PermPin:           LevelModerator,
	PermModerate:      LevelModerator,
	PermFullAdmin:     LevelOwner,
}

// HasPermission reports whether the role grants the given permission key.
// Unknown keys are denied.
func (r Role) HasPermission(p Permission) bool {
	min, ok := permissionLevels[p]
	if !ok {
		return false
	}
	return r.HasMinimumLevel(min)
}

// ValidPermission reports whether p is one of the fixed permission keys.
func ValidPermission(p Permission) bool {
	_, ok := permissionLevels[p]
	return ok
}

// CanViewResource evaluates a per-resource allow-list against the role.
// An empty or nil list means the resource is public. A non-empty list is an
// exact-match test: the role must be a literal member. Higher ranks are not
// implicitly included.
func CanViewResource(r Role, allowed []Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}

// ParseAllowedRoles decodes a serialized allow-list. Accepts a JSON array or
// a comma-separated string. Unknown role names are kept as literal members
// that match nobody, so a list of retired or misspelled names keeps the
// resource locked instead of silently going public.
func ParseAllowedRoles(s string) []Role {
	names := splitTagList(s)
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		roles = append(roles, Role(strings.ToLower(n)))
	}
	return roles
}

// CustomTag is a decorative badge attached to a profile.
type CustomTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ParseCustomTags decodes the stored customTags value. Three formats are
// tolerated: a JSON array, a comma-separated list, or a single bare tag.
func ParseCustomTags(s string) []CustomTag {
	names := splitTagList(s)
	tags := make([]CustomTag, 0, len(names))
	for _, n := range names {
		tags = append(tags, CustomTag{
			ID:   strings.ReplaceAll(strings.ToLower(n), " ", "_"),
			Name: n,
		})
	}
	return tags
}

// splitTagList handles the shared JSON-array-or-comma-list storage format.
func splitTagList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			out := make([]string, 0, len(arr))
			for _, v := range arr {
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			}
			return out
		}
		// fall through: treat malformed JSON as plain text
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
