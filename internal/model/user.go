package model

import "time"

// User はサービスの登録ユーザーを表す。
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
