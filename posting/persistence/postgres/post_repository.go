package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dfryer1193/paper/posting/domain"
)

var _ domain.PostRepository = (*PostRepository)(nil)

// PostRepository implements domain.PostRepository on a pgx pool.
type PostRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

const insertPostQuery = `
	INSERT INTO posts (title, content, url, user_id, category_id, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
`

const upsertPostQuery = `
	INSERT INTO posts (id, title, content, url, user_id, category_id, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		content = excluded.content,
		url = excluded.url,
		user_id = excluded.user_id,
		category_id = excluded.category_id,
		active = excluded.active,
		updated_at = excluded.updated_at
	RETURNING id, created_at
`

const syncPostIDSequenceQuery = `
	SELECT setval(pg_get_serial_sequence('posts', 'id'), GREATEST((SELECT MAX(id) FROM posts), 1))
`

// Save validates p and then inserts it (p.ID == 0) or upserts it by id.
func (r *PostRepository) Save(ctx context.Context, p *domain.Post) (*domain.Post, error) {
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

	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if p.ID == 0 {
			return tx.QueryRow(ctx, insertPostQuery,
				p.Title, p.Content, nullString(p.URL), nullString(p.User),
				nullID(p.CategoryID()), p.Active, createdAt, now,
			).Scan(&id)
		}

		err := tx.QueryRow(ctx, upsertPostQuery,
			p.ID, p.Title, p.Content, nullString(p.URL), nullString(p.User),
			nullID(p.CategoryID()), p.Active, createdAt, now,
		).Scan(&id, &createdAt)
		if err != nil {
			return err
		}

		// An explicit id does not advance the serial sequence.
		_, err = tx.Exec(ctx, syncPostIDSequenceQuery)
		return err
	})
	if err != nil {
		return nil, classifyError("failed to save post", err)
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

// FindByID retrieves a post by id regardless of its active flag.
func (r *PostRepository) FindByID(ctx context.Context, id int64) (*domain.Post, bool, error) {
	return r.findOne(ctx, selectPostColumns+`WHERE p.id = $1`, id)
}

// FindByURL retrieves a post by url regardless of its active flag.
func (r *PostRepository) FindByURL(ctx context.Context, url string) (*domain.Post, bool, error) {
	return r.findOne(ctx, selectPostColumns+`WHERE p.url = $1`, url)
}

// FindByURLAndActive retrieves a post by url only when its active flag matches.
func (r *PostRepository) FindByURLAndActive(ctx context.Context, url string, active bool) (*domain.Post, bool, error) {
	return r.findOne(ctx, selectPostColumns+`WHERE p.url = $1 AND p.active = $2`, url, active)
}

func (r *PostRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Post, bool, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.StorageError("failed to get post", err)
	}
	return post, true, nil
}

func (r *PostRepository) FindAllByActive(ctx context.Context, active bool, req domain.PageRequest) (*domain.Page, error) {
	return r.findPage(ctx, "p.active = $1", req, active)
}

func (r *PostRepository) FindByUserAndActive(ctx context.Context, user string, active bool, req domain.PageRequest) (*domain.Page, error) {
	return r.findPage(ctx, "p.user_id = $1 AND p.active = $2", req, user, active)
}

func (r *PostRepository) FindByCategoryIDAndActive(ctx context.Context, categoryID int64, active bool, req domain.PageRequest) (*domain.Page, error) {
	return r.findPage(ctx, "p.category_id = $1 AND p.active = $2", req, categoryID, active)
}

// findPage counts and slices inside one repeatable-read transaction.
// where is always one of the constant predicates above; limit and offset
// take the next two placeholders.
func (r *PostRepository) findPage(ctx context.Context, where string, req domain.PageRequest, args ...any) (*domain.Page, error) {
	req = req.Normalize()

	var total int64
	posts := make([]*domain.Post, 0, req.Size)

	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, r.pool, txOpts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM posts p WHERE `+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count posts: %w", err)
		}

		if int64(req.Offset()) >= total {
			return nil
		}

		n := len(args)
		query := fmt.Sprintf("%sWHERE %s ORDER BY p.id ASC LIMIT $%d OFFSET $%d", selectPostColumns, where, n+1, n+2)
		rows, err := tx.Query(ctx, query, append(args, req.Limit(), req.Offset())...)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			post, err := scanPost(rows)
			if err != nil {
				return fmt.Errorf("failed to scan post row: %w", err)
			}
			posts = append(posts, post)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, domain.StorageError("failed to query posts", err)
	}

	return domain.NewPage(posts, req, total), nil
}

// Delete removes p permanently. Transient posts and absent ids are ignored.
func (r *PostRepository) Delete(ctx context.Context, p *domain.Post) error {
	if p.IsTransient() {
		return nil
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, p.ID); err != nil {
		return classifyError("failed to delete post", err)
	}
	return nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		post         domain.Post
		categoryID   *int64
		categoryName string
	)

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.URL,
		&post.User,
		&categoryID,
		&categoryName,
		&post.Active,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoryID != nil {
		post.Category = &domain.Category{ID: *categoryID, Name: categoryName}
	}
	return &post, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
