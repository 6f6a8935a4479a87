package models

import (
	"time"

	"github.com/google/uuid"
)

// Awardee represents a program participant with a public profile page.
type Awardee struct {
	ID              uuid.UUID         `json:"id"`
	Slug            string            `json:"slug"`
	Name            string            `json:"name"`
	Email           string            `json:"-"` // Verification anchor, never rendered publicly
	Headline        *string           `json:"headline"`
	Tagline         *string           `json:"tagline"`
	Bio             *string           `json:"bio"`
	AvatarURL       *string           `json:"avatar_url"`
	SocialLinks     map[string]string `json:"social_links"`
	LinkedinPostURL *string           `json:"linkedin_post_url"`
	Country         string            `json:"country"`
	CohortYear      int               `json:"cohort_year"`
	IsPublic        bool              `json:"is_public"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ProfileUpdate is the self-service field set written by the edit workflow.
// Nil pointers are persisted as NULL.
type ProfileUpdate struct {
	Headline        *string           `json:"headline"`
	Tagline         *string           `json:"tagline"`
	Bio             *string           `json:"bio"`
	AvatarURL       *string           `json:"avatar_url"`
	SocialLinks     map[string]string `json:"social_links"`
	LinkedinPostURL *string           `json:"linkedin_post_url"`
	Publish         bool              `json:"-"`
}

// AwardeeFilter narrows awardee listings.
type AwardeeFilter struct {
	Query      string // Matches name, headline or country
	Country    string
	CohortYear int
	PublicOnly bool
	Limit      int
	Offset     int
}

// AwardeePage is one page of an awardee listing.
type AwardeePage struct {
	Awardees []Awardee `json:"awardees"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// EditableProfile is the subset of an awardee a verified owner can edit.
type EditableProfile struct {
	ID              uuid.UUID         `json:"id"`
	Slug            string            `json:"slug"`
	Name            string            `json:"name"`
	Headline        *string           `json:"headline"`
	Tagline         *string           `json:"tagline"`
	Bio             *string           `json:"bio"`
	AvatarURL       *string           `json:"avatar_url"`
	SocialLinks     map[string]string `json:"social_links"`
	LinkedinPostURL *string           `json:"linkedin_post_url"`
}

// Editable returns the owner-editable view of the awardee.
func (a *Awardee) Editable() EditableProfile {
	return EditableProfile{
		ID:              a.ID,
		Slug:            a.Slug,
		Name:            a.Name,
		Headline:        a.Headline,
		Tagline:         a.Tagline,
		Bio:             a.Bio,
		AvatarURL:       a.AvatarURL,
		SocialLinks:     a.SocialLinks,
		LinkedinPostURL: a.LinkedinPostURL,
	}
}
