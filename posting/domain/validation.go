package domain

import "strings"

type rule struct {
	field   string
	message string
	valid   func(p *Post) bool
}

// rules are evaluated in order and all of them run, so a caller sees every
// problem at once.
var rules = []rule{
	{
		field:   "title",
		message: "Title is required.",
		valid:   func(p *Post) bool { return strings.TrimSpace(p.Title) != "" },
	},
	{
		field:   "content",
		message: "Content is required.",
		valid:   func(p *Post) bool { return strings.TrimSpace(p.Content) != "" },
	},
}

// Validate checks the field rules of a post. It returns nil or a *ValidationError
// listing every violation. Referential and uniqueness rules are left to storage.
func Validate(p *Post) error {
	var violations []FieldViolation
	for _, r := range rules {
		if !r.valid(p) {
			violations = append(violations, FieldViolation{Field: r.field, Message: r.message})
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
