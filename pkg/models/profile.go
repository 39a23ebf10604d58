package models

import "strings"

// ProfileRow is a row of the profiles table. Older rows carry the name in
// the legacy "name" column instead of "full_name".
type ProfileRow struct {
	ID               string           `json:"id" db:"id"`
	FullName         string           `json:"full_name" db:"full_name"`
	LegacyName       string           `json:"name" db:"name"`
	Email            string           `json:"email" db:"email"`
	Role             string           `json:"role" db:"role"`
	AvatarInitials   string           `json:"avatar_initials" db:"avatar_initials"`
	PhotoURL         string           `json:"photo_url" db:"photo_url"`
	Bio              string           `json:"bio" db:"bio"`
	BirthDate        NullTime         `json:"birth_date" db:"birth_date"`
	Skills           JSONList[string] `json:"skills" db:"skills"`
	SocialLinks      JSONList[Link]   `json:"social_links" db:"social_links"`
	MembershipNumber string           `json:"membership_number" db:"membership_number"`
	Phone            string           `json:"phone" db:"phone"`
	Course           string           `json:"course" db:"course"`
}

// ProfileChapterRow is a row of the profile_chapters join table
type ProfileChapterRow struct {
	ID             int64  `json:"id" db:"id"`
	ProfileID      string `json:"profile_id" db:"profile_id"`
	ChapterID      int64  `json:"chapter_id" db:"chapter_id"`
	PermissionSlug string `json:"permission_slug" db:"permission_slug"`
}

// ChapterRole is one (chapter, slug) relation of a profile
type ChapterRole struct {
	ChapterID int64          `json:"chapterId"`
	Slug      PermissionSlug `json:"slug"`
}

// Profile is a hydrated user profile
type Profile struct {
	ID               string        `json:"id"`
	FullName         string        `json:"fullName"`
	Email            string        `json:"email"`
	Role             string        `json:"role"`
	AvatarInitials   string        `json:"avatarInitials"`
	PhotoURL         string        `json:"photoUrl,omitempty"`
	Bio              string        `json:"bio,omitempty"`
	BirthDate        NullTime      `json:"birthDate"`
	Skills           []string      `json:"skills"`
	SocialLinks      []Link        `json:"socialLinks"`
	MembershipNumber string        `json:"membershipNumber,omitempty"`
	Phone            string        `json:"phone,omitempty"`
	Course           string        `json:"course,omitempty"`
	Chapters         []*Chapter    `json:"chapters"`
	Roles            []ChapterRole `json:"roles"`
}

// ShortName is the first and last word of the full name
func (p *Profile) ShortName() string {
	if p == nil {
		return ""
	}
	parts := strings.Fields(p.FullName)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + " " + parts[len(parts)-1]
	}
}

// HasSlug reports whether the profile holds slug in chapterID
func (p *Profile) HasSlug(chapterID int64, slug PermissionSlug) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r.ChapterID == chapterID && r.Slug == slug {
			return true
		}
	}
	return false
}

// Initials derives avatar initials from a full name
func Initials(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return ""
	}
	first := []rune(parts[0])
	out := strings.ToUpper(string(first[0]))
	if len(parts) > 1 {
		last := []rune(parts[len(parts)-1])
		out += strings.ToUpper(string(last[0]))
	}
	return out
}
