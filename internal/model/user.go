package model

import "time"

// User はサービス利用ユーザーを表す。
// 認証フロー自体は外部コラボレータの責務であり、本サービスは参照のみ行う。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// 本サービスはセッションの検証（読み取り）のみを行い、発行は行わない。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
