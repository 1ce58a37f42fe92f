package model

import "time"

// Note はユーザーが所有するメモを表す。
// UserIDは作成時に設定され、以降再割り当てされない。
// TitleとContentは空文字列がデフォルトで、NULLにはならない。
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
