package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidvault/backend/internal/db"
	"github.com/vidvault/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record and returns the generated id.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        INSERT INTO users (username, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, user.Username, user.Email, user.Password, user.CreatedAt)

	var id int64
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return id, nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, username, email, password_hash, created_at
        FROM users
        WHERE email = $1
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// FindByID fetches a user by their numeric identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, username, email, password_hash, created_at
        FROM users
        WHERE id = $1
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}

// List returns every registered user, newest first.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, username, email, password_hash, created_at
        FROM users
        ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Delete removes a user row. Video rows owned by the user cascade at the store.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM users
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

const videoColumns = `
        v.id, v.video_id, v.title, v.description, v.filename, v.thumbnail,
        v.user_id, u.username, v.views, v.created_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for catalog videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video metadata record and returns the generated row id.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	thumbnail := sql.NullString{String: video.Thumbnail, Valid: video.Thumbnail != ""}

	row := conn.QueryRow(ctx, `
        INSERT INTO videos (video_id, title, description, filename, thumbnail, user_id, views, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `, video.VideoID, video.Title, video.Description, video.Filename, thumbnail, video.UserID, video.Views, video.CreatedAt)

	var id int64
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return 0, ErrConflict
			case "23503":
				return 0, ErrNotFound
			}
		}
		return 0, fmt.Errorf("insert video: %w", err)
	}

	return id, nil
}

// FindByVideoID fetches a video by its public identifier, joined with the owner's username.
func (r *PostgresVideoRepository) FindByVideoID(ctx context.Context, videoID string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoColumns+`
        FROM videos v
        JOIN users u ON u.id = v.user_id
        WHERE v.video_id = $1
    `, videoID)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video by video_id: %w", err)
	}

	return video, nil
}

// List returns all videos newest first. A non-empty search term filters on a
// case-insensitive substring match over title or description.
func (r *PostgresVideoRepository) List(ctx context.Context, search string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT ` + videoColumns + `
        FROM videos v
        JOIN users u ON u.id = v.user_id`
	args := []any{}
	if search != "" {
		query += `
        WHERE v.title ILIKE '%' || $1 || '%' OR v.description ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += `
        ORDER BY v.created_at DESC`

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// ListRelated returns the newest videos excluding the one being watched.
func (r *PostgresVideoRepository) ListRelated(ctx context.Context, excludeVideoID string, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = 8
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos v
        JOIN users u ON u.id = v.user_id
        WHERE v.video_id <> $1
        ORDER BY v.created_at DESC
        LIMIT $2
    `, excludeVideoID, limit)
	if err != nil {
		return nil, fmt.Errorf("query related videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// ListByOwner returns the videos uploaded by a specific user, newest first.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, userID int64) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos v
        JOIN users u ON u.id = v.user_id
        WHERE v.user_id = $1
        ORDER BY v.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query videos by owner: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// ListMissingThumbnails returns videos that have no preview image yet.
func (r *PostgresVideoRepository) ListMissingThumbnails(ctx context.Context) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos v
        JOIN users u ON u.id = v.user_id
        WHERE v.thumbnail IS NULL OR v.thumbnail = ''
        ORDER BY v.created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query videos missing thumbnails: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// SetThumbnail records the storage key of a generated preview image.
func (r *PostgresVideoRepository) SetThumbnail(ctx context.Context, videoID, thumbnail string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET thumbnail = $2
        WHERE video_id = $1
    `, videoID, thumbnail)
	if err != nil {
		return fmt.Errorf("update video thumbnail: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementViews advances the view counter through the store's atomic
// increment_video_views function. Never read-modify-write from the client.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT increment_video_views($1)`, videoID); err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}

	return nil
}

// Delete removes a video row by its public identifier.
func (r *PostgresVideoRepository) Delete(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM videos
        WHERE video_id = $1
    `, videoID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (models.Video, error) {
	var (
		video     models.Video
		thumbnail sql.NullString
	)

	if err := row.Scan(&video.ID, &video.VideoID, &video.Title, &video.Description, &video.Filename,
		&thumbnail, &video.UserID, &video.Username, &video.Views, &video.CreatedAt); err != nil {
		return models.Video{}, err
	}

	if thumbnail.Valid {
		video.Thumbnail = thumbnail.String
	}

	return video, nil
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
