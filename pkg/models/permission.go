package models

import "strings"

// PermissionSlug is the role a profile holds in one chapter
type PermissionSlug string

const (
	SlugAdmin   PermissionSlug = "admin"
	SlugChair   PermissionSlug = "chair"
	SlugMember  PermissionSlug = "member"
	SlugUnknown PermissionSlug = "unknown"
)

// ParsePermissionSlug maps stored slugs onto the closed set; anything else
// is SlugUnknown and grants nothing.
func ParsePermissionSlug(s string) PermissionSlug {
	switch slug := PermissionSlug(strings.ToLower(strings.TrimSpace(s))); slug {
	case SlugAdmin, SlugChair, SlugMember:
		return slug
	default:
		return SlugUnknown
	}
}

// PermissionRow is a row of the permissions catalog
type PermissionRow struct {
	Slug        string `json:"slug" db:"slug"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Permission is a catalog entry with its parsed slug
type Permission struct {
	Slug        PermissionSlug `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}
