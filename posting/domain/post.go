package domain

import (
	"context"
	"time"
)

// Category is a non-owning reference to a category owned by another store.
// Only ID is required when saving a post; Name is filled in on reads.
type Category struct {
	ID   int64
	Name string
}

// Post represents a blog post.
// A post without an ID has never been persisted. Active controls whether
// the post shows up on the public read paths; it is not a deletion marker.
type Post struct {
	ID        int64
	Title     string
	Content   string
	URL       string
	User      string
	Category  *Category
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTransient reports whether the post has never been assigned an identity.
func (p *Post) IsTransient() bool {
	return p == nil || p.ID == 0
}

// CategoryID returns the referenced category id, or 0 when no category is set.
func (p *Post) CategoryID() int64 {
	if p.Category == nil {
		return 0
	}
	return p.Category.ID
}

// PostRepository persists and queries posts.
//
// Lookups report absence through the boolean result, never through an error.
// Save returns a *ValidationError before touching storage when required fields
// are missing, and a *ConstraintViolation when the storage engine rejects the
// write. Any other failure wraps ErrStorage.
type PostRepository interface {
	Save(ctx context.Context, p *Post) (*Post, error)
	FindByID(ctx context.Context, id int64) (*Post, bool, error)
	FindByURL(ctx context.Context, url string) (*Post, bool, error)
	FindByURLAndActive(ctx context.Context, url string, active bool) (*Post, bool, error)
	FindAllByActive(ctx context.Context, active bool, req PageRequest) (*Page, error)
	FindByUserAndActive(ctx context.Context, user string, active bool, req PageRequest) (*Page, error)
	FindByCategoryIDAndActive(ctx context.Context, categoryID int64, active bool, req PageRequest) (*Page, error)
	Delete(ctx context.Context, p *Post) error
}
