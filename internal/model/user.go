package model

import "time"

// UserAccount は登録済みアカウントを表す。
// 作成後は変更されない。
type UserAccount struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public は資格情報を除いた公開用のユーザー情報を返す。
func (a *UserAccount) Public() PublicUser {
	return PublicUser{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
	}
}

// PublicUser はセッションに保持される公開用ユーザー情報。
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Valid はセッション復元時に使うレコードの整合性チェック。
func (u PublicUser) Valid() bool {
	return u.ID != "" && u.Email != ""
}
