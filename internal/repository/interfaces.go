// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/memoya/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Upsert はgoogle_idをキーにユーザーを作成または更新する。
	// 既存ユーザーの場合はプロフィール（email, name, avatar_url）のみ上書きし、
	// idとgoogle_idは変更しない。確定後のレコードを返す。
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定トークンの有効なセッションを取得する。
	// 期限切れまたは存在しない場合はnilを返す。有効な場合はlast_seen_atを更新する。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// DeleteByToken は指定トークンのセッションを削除する。
	// 存在しないトークンを指定してもエラーにならない（冪等）。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	// 有効期限の強制はFindByTokenの読み取り時に行われるため、これは純粋なストレージ掃除。
	DeleteExpired(ctx context.Context) (int64, error)
}

// NoteRepository はメモデータの永続化インターフェース。
// 全操作が所有者IDで制約され、検索と所有者チェックは常に同一クエリで行う。
type NoteRepository interface {
	// ListByUser は指定ユーザーのメモ一覧をupdated_at降順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Note, error)

	// Create はメモを作成する。
	Create(ctx context.Context, note *model.Note) error

	// FindByUserAndID は指定ユーザーが所有するメモを取得する。
	// 存在しない、または他ユーザー所有の場合はnilを返す。
	FindByUserAndID(ctx context.Context, userID, id string) (*model.Note, error)

	// Update は指定ユーザーが所有するメモを部分更新する。
	// nilのフィールドは既存値を維持し、updated_atを現在時刻に進める。
	// 更新対象が存在しない場合はnilを返す。
	Update(ctx context.Context, userID, id string, title, content *string) (*model.Note, error)

	// Delete は指定ユーザーが所有するメモを削除する。
	// 削除できた場合はtrueを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)
}
