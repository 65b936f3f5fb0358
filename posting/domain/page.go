package domain

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest selects a slice of an ordered result set. Page is 0-based.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest returns a normalized page request.
func NewPageRequest(page, size int) PageRequest {
	return PageRequest{Page: page, Size: size}.Normalize()
}

// Normalize clamps the page index and size to usable values.
// The page index is capped so that Offset and Number+1 never overflow int.
func (r PageRequest) Normalize() PageRequest {
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	if r.Page < 0 {
		r.Page = 0
	}
	if maxPage := math.MaxInt/r.Size - 1; r.Page > maxPage {
		r.Page = maxPage
	}
	return r
}

// Limit is the maximum number of rows for this page.
func (r PageRequest) Limit() int {
	return r.Size
}

// Offset is the number of rows to skip before this page starts.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one slice of a paginated query together with totals for the whole result set.
type Page struct {
	Posts         []*Post
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewPage builds a Page for the given request. A nil posts slice is replaced
// with an empty one.
func NewPage(posts []*Post, req PageRequest, total int64) *Page {
	if posts == nil {
		posts = make([]*Post, 0)
	}

	totalPages := int(total) / req.Size
	if int(total)%req.Size > 0 {
		totalPages++
	}

	return &Page{
		Posts:         posts,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// HasNext reports whether a page after this one holds any posts.
func (p *Page) HasNext() bool {
	return p.Number+1 < p.TotalPages
}

// HasPrevious reports whether this is not the first page.
func (p *Page) HasPrevious() bool {
	return p.Number > 0
}
