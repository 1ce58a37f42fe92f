// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// GoogleIDは外部IdPが発行する安定識別子で、作成後は変更されない。
// Email、Name、AvatarURLは再ログインのたびに最新のプロフィールで上書きされる。
type User struct {
	ID        string
	GoogleID  string
	Email     string
	Name      string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// Tokenは推測不能なオペークトークンで、HTTP Only Cookie経由でクライアントに渡される。
type Session struct {
	Token      string
	UserID     string
	ExpiresAt  time.Time
	LastSeenAt time.Time
	CreatedAt  time.Time
}
