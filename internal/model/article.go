package model

import "time"

// ArticleStatus は記事の編集・公開状態を表す。
type ArticleStatus string

const (
	// ArticleStatusPending は投稿直後の未処理状態。
	ArticleStatusPending ArticleStatus = "pending"
	// ArticleStatusPublished は配信処理済みの状態。
	ArticleStatusPublished ArticleStatus = "published"
)

// Article はユーザーが投稿した複数サイト配信対象の記事を表す。
type Article struct {
	ID            string
	UserID        string
	Title         string
	Content       string
	SelectedSites []string // 配信先サイト名のリスト
	Status        ArticleStatus
	ImagePaths    []string // 記事IDでスコープされたBlobストア上のパス（最大3件）
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SiteResult は1サイト分のファンアウト結果を表す。
// 成功時はURLに参照URL、失敗時はErrに人間可読なエラーメッセージが入る。
// 永続化されない一時データであり、運営者向けサマリーメールにのみ含まれる。
type SiteResult struct {
	Site string `json:"site"`
	URL  string `json:"url,omitempty"`
	Err  string `json:"error,omitempty"`
}

// OK は配信が成功したかどうかを返す。
func (r SiteResult) OK() bool {
	return r.Err == ""
}
