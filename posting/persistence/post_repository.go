package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/paper/posting/domain"
	"github.com/dfryer1193/paper/shared/db"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository implements domain.PostRepository using SQLite
type SQLitePostRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostRepository creates a new SQLitePostRepository from a standard sql.DB
func NewPostRepository(sqlDB *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{
		db:  sqlDB,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const insertPostQuery = `
	INSERT INTO posts (title, content, url, user_id, category_id, active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const upsertPostQuery = `
	INSERT INTO posts (id, title, content, url, user_id, category_id, active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		content = excluded.content,
		url = excluded.url,
		user_id = excluded.user_id,
		category_id = excluded.category_id,
		active = excluded.active,
		updated_at = excluded.updated_at,
		created_at = COALESCE(posts.created_at, excluded.created_at)
`

// Save validates p and then inserts it (p.ID == 0) or upserts it by id.
// On success p.ID and the timestamps are set and p is returned.
func (r *SQLitePostRepository) Save(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	if p == nil {
		return nil, fmt.Errorf("post cannot be nil")
	}

	if err := domain.Validate(p); err != nil {
		return nil, err
	}

	now := r.now()
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	id := p.ID
	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		if id == 0 {
			res, err := executor.ExecContext(txCtx, insertPostQuery,
				p.Title,
				p.Content,
				nullString(p.URL),
				nullString(p.User),
				nullID(p.CategoryID()),
				p.Active,
				createdAt,
				now,
			)
			if err != nil {
				return classifyError("failed to insert post", err)
			}

			id, err = res.LastInsertId()
			if err != nil {
				return domain.StorageError("failed to read post id", err)
			}
			return nil
		}

		_, err := executor.ExecContext(txCtx, upsertPostQuery,
			id,
			p.Title,
			p.Content,
			nullString(p.URL),
			nullString(p.User),
			nullID(p.CategoryID()),
			p.Active,
			createdAt,
			now,
		)
		return classifyError("failed to upsert post", err)
	})
	if err != nil {
		return nil, asStorageError("failed to save post", err)
	}

	p.ID = id
	p.CreatedAt = createdAt
	p.UpdatedAt = now
	return p, nil
}

const selectPostColumns = `
	SELECT p.id, p.title, p.content, p.url, p.user_id, p.category_id, COALESCE(c.name, ''),
		p.active, p.created_at, p.updated_at
	FROM posts p
	LEFT JOIN categories c ON c.id = p.category_id
`

const getPostByIDQuery = selectPostColumns + `WHERE p.id = ?`

const getPostByURLQuery = selectPostColumns + `WHERE p.url = ?`

const getPostByURLAndActiveQuery = selectPostColumns + `WHERE p.url = ? AND p.active = ?`

// FindByID retrieves a post by id regardless of its active flag
func (r *SQLitePostRepository) FindByID(ctx context.Context, id int64) (*domain.Post, bool, error) {
	return r.findOne(ctx, getPostByIDQuery, id)
}

// FindByURL retrieves a post by url regardless of its active flag
func (r *SQLitePostRepository) FindByURL(ctx context.Context, url string) (*domain.Post, bool, error) {
	return r.findOne(ctx, getPostByURLQuery, url)
}

// FindByURLAndActive retrieves a post by url only when its active flag matches
func (r *SQLitePostRepository) FindByURLAndActive(ctx context.Context, url string, active bool) (*domain.Post, bool, error) {
	return r.findOne(ctx, getPostByURLAndActiveQuery, url, active)
}

func (r *SQLitePostRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Post, bool, error) {
	executor := db.GetExecutor(ctx, r.db)

	var row postRow
	err := row.scan(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.StorageError("failed to get post", err)
	}

	return row.toDomain(), true, nil
}

// FindAllByActive lists posts with the given active flag, ordered by id
func (r *SQLitePostRepository) FindAllByActive(ctx context.Context, active bool, req domain.PageRequest) (*domain.Page, error) {
	return r.findPage(ctx, "p.active = ?", req, active)
}

// FindByUserAndActive lists a user's posts with the given active flag, ordered by id
func (r *SQLitePostRepository) FindByUserAndActive(ctx context.Context, user string, active bool, req domain.PageRequest) (*domain.Page, error) {
	return r.findPage(ctx, "p.user_id = ? AND p.active = ?", req, user, active)
}

// FindByCategoryIDAndActive lists a category's posts with the given active flag, ordered by id
func (r *SQLitePostRepository) FindByCategoryIDAndActive(ctx context.Context, categoryID int64, active bool, req domain.PageRequest) (*domain.Page, error) {
	return r.findPage(ctx, "p.category_id = ? AND p.active = ?", req, categoryID, active)
}

// findPage runs the count and the slice query in one transaction so that the
// totals describe the same snapshot as the returned posts.
// where is always one of the constant predicates above.
func (r *SQLitePostRepository) findPage(ctx context.Context, where string, req domain.PageRequest, args ...any) (*domain.Page, error) {
	req = req.Normalize()

	var (
		total int64
		posts = make([]*domain.Post, 0, req.Size)
	)

	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		countQuery := `SELECT COUNT(*) FROM posts p WHERE ` + where
		if err := executor.QueryRowContext(txCtx, countQuery, args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count posts: %w", err)
		}

		if int64(req.Offset()) >= total {
			return nil
		}

		listQuery := selectPostColumns + `WHERE ` + where + ` ORDER BY p.id ASC LIMIT ? OFFSET ?`
		rows, err := executor.QueryContext(txCtx, listQuery, append(args, req.Limit(), req.Offset())...)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var row postRow
			if err := row.scan(rows); err != nil {
				return fmt.Errorf("failed to scan post row: %w", err)
			}
			posts = append(posts, row.toDomain())
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating post rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, asStorageError("failed to query posts", err)
	}

	return domain.NewPage(posts, req, total), nil
}

const deletePostQuery = `DELETE FROM posts WHERE id = ?`

// Delete removes p permanently. Transient posts and ids that no longer exist
// are ignored.
func (r *SQLitePostRepository) Delete(ctx context.Context, p *domain.Post) error {
	if p.IsTransient() {
		return nil
	}

	executor := db.GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, deletePostQuery, p.ID); err != nil {
		return classifyError("failed to delete post", err)
	}

	return nil
}

// asStorageError leaves domain error kinds untouched and wraps the rest
func asStorageError(op string, err error) error {
	var cv *domain.ConstraintViolation
	if errors.As(err, &cv) || errors.Is(err, domain.ErrStorage) {
		return err
	}
	return domain.StorageError(op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

type scanner interface {
	Scan(dest ...any) error
}

// postRow is a private struct used to scan database rows and convert them
// to the domain.Post model
type postRow struct {
	ID           int64         `db:"id"`
	Title        string        `db:"title"`
	Content      string        `db:"content"`
	URL          string        `db:"url"`
	User         string        `db:"user_id"`
	CategoryID   sql.NullInt64 `db:"category_id"`
	CategoryName string        `db:"category_name"`
	Active       bool          `db:"active"`
	CreatedAt    sql.NullTime  `db:"created_at"`
	UpdatedAt    sql.NullTime  `db:"updated_at"`
}

func (pr *postRow) scan(s scanner) error {
	return s.Scan(
		&pr.ID,
		&pr.Title,
		&pr.Content,
		&pr.URL,
		&pr.User,
		&pr.CategoryID,
		&pr.CategoryName,
		&pr.Active,
		&pr.CreatedAt,
		&pr.UpdatedAt,
	)
}

// toDomain converts a postRow to a domain.Post
func (pr *postRow) toDomain() *domain.Post {
	post := &domain.Post{
		ID:      pr.ID,
		Title:   pr.Title,
		Content: pr.Content,
		URL:     pr.URL,
		User:    pr.User,
		Active:  pr.Active,
	}

	if pr.CategoryID.Valid {
		post.Category = &domain.Category{ID: pr.CategoryID.Int64, Name: pr.CategoryName}
	}
	if pr.CreatedAt.Valid {
		post.CreatedAt = pr.CreatedAt.Time
	}
	if pr.UpdatedAt.Valid {
		post.UpdatedAt = pr.UpdatedAt.Time
	}

	return post
}
