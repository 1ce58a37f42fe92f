package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/memoya/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, google_id, email, name, avatar_url, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.GoogleID, &user.Email, &user.Name, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// Upsert はgoogle_idをキーにユーザーを作成または更新する。
// 同一プロフィールを何度再送しても1レコードに収束する（冪等）。
// user.IDは新規作成時のみ使用され、既存行のidは変更されない。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	result := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, google_id, email, name, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())
		 ON CONFLICT (google_id)
		 DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name,
		               avatar_url = EXCLUDED.avatar_url, updated_at = now()
		 RETURNING id, google_id, email, name, avatar_url, created_at, updated_at`,
		user.ID, user.GoogleID, user.Email, user.Name, user.AvatarURL,
	).Scan(&result.ID, &result.GoogleID, &result.Email, &result.Name, &result.AvatarURL, &result.CreatedAt, &result.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
