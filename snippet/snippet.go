// Package snippet contains the data structures that describe code snippets
// in a collection.
package snippet

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Snippet a single stored code example with its metadata
type Snippet struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Language    string     `json:"language"`
	Tags        []string   `json:"tags"`
	Description string     `json:"description"`
	Code        string     `json:"code"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy that shares no mutable state with the original
func (s Snippet) Clone() Snippet {
	c := s
	c.Tags = append([]string{}, s.Tags...)
	if s.UpdatedAt != nil {
		updatedAt := *s.UpdatedAt
		c.UpdatedAt = &updatedAt
	}
	return c
}

// Matches reports whether the query occurs in the title, description, code
// or any tag, ignoring case. An empty query matches everything.
func (s Snippet) Matches(query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(s.Title), query) ||
		strings.Contains(strings.ToLower(s.Description), query) ||
		strings.Contains(strings.ToLower(s.Code), query) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// Validate checks the required field constraints on a stored record
func (s Snippet) Validate() error {
	var err error
	if strings.TrimSpace(s.Title) == "" {
		err = multierr.Append(err, errors.New("title must not be empty"))
	}
	if s.Language == "" {
		err = multierr.Append(err, errors.New("language must not be empty"))
	}
	if s.Code == "" {
		err = multierr.Append(err, errors.New("code must not be empty"))
	}
	return err
}

// Fields the caller supplied values for a new snippet. Identifiers and
// timestamps are never part of it, the store assigns those.
type Fields struct {
	Title       string   `json:"title"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
}

// Validate checks the required field constraints for create and import
func (f Fields) Validate() error {
	return Snippet{
		Title:    f.Title,
		Language: f.Language,
		Code:     f.Code,
	}.Validate()
}

// Patch a partial update. Nil fields are left untouched on merge, so the
// unset and empty cases stay distinguishable.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Language    *string   `json:"language,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Description *string   `json:"description,omitempty"`
	Code        *string   `json:"code,omitempty"`
}

// Apply merges the set fields over the snippet. ID and CreatedAt are not
// representable in a Patch and remain as they are.
func (p Patch) Apply(s *Snippet) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Tags != nil {
		s.Tags = append([]string{}, *p.Tags...)
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Code != nil {
		s.Code = *p.Code
	}
}
