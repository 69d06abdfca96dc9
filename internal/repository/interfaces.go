// Package repository はPostgreSQLを使用した永続化層を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/pressrelay/internal/model"
)

// OrderRepository は注文の永続化インターフェース。
type OrderRepository interface {
	// Create は注文を作成する。
	Create(ctx context.Context, order *model.Order) error
	// FindBySessionID はチェックアウトセッションIDで注文を検索する。見つからない場合はnilを返す。
	FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	// MarkCompleted は注文を決済完了状態に更新し、顧客メールアドレスを保存する。
	// 更新された行数を返す。未知のセッションIDや処理済みの注文では0行となる。
	MarkCompleted(ctx context.Context, sessionID, customerEmail string) (int64, error)
	// AttachUser は未認証購入の注文にユーザーIDを後付けする。
	// user_idが未設定の注文のみが対象となる。更新された行数を返す。
	AttachUser(ctx context.Context, sessionID, userID string) (int64, error)
}

// ArticleRepository は記事の永続化インターフェース。
type ArticleRepository interface {
	// Create は記事を作成する。
	Create(ctx context.Context, article *model.Article) error
	// ListByUser はユーザーの記事一覧を新しい順に取得する。
	ListByUser(ctx context.Context, userID string) ([]*model.Article, error)
	// UpdateStatus は記事の状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.ArticleStatus) error
	// UpdateImagePaths は記事の画像パスを更新する。
	UpdateImagePaths(ctx context.Context, id string, paths []string) error
}

// UserRepository はユーザーの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。メールアドレス重複時はエラーを返す。
	Create(ctx context.Context, user *model.User) error
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}
