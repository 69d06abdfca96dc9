package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/pressrelay/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// Create は記事を作成する。
func (r *PostgresArticleRepo) Create(ctx context.Context, article *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (id, user_id, title, content, selected_sites,
		                       status, image_paths, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		article.ID, article.UserID, article.Title, article.Content,
		pq.Array(article.SelectedSites), article.Status, pq.Array(article.ImagePaths),
		article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUser はユーザーの記事一覧を新しい順に取得する。
func (r *PostgresArticleRepo) ListByUser(ctx context.Context, userID string) ([]*model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, selected_sites,
		        status, image_paths, created_at, updated_at
		 FROM articles WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		article := &model.Article{}
		if err := rows.Scan(
			&article.ID, &article.UserID, &article.Title, &article.Content,
			pq.Array(&article.SelectedSites), &article.Status, pq.Array(&article.ImagePaths),
			&article.CreatedAt, &article.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("記事一覧の読み取りに失敗しました: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	return articles, nil
}

// UpdateStatus は記事の状態を更新する。
func (r *PostgresArticleRepo) UpdateStatus(ctx context.Context, id string, status model.ArticleStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("記事状態の更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateImagePaths は記事の画像パスを更新する。
func (r *PostgresArticleRepo) UpdateImagePaths(ctx context.Context, id string, paths []string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET image_paths = $2, updated_at = now() WHERE id = $1`,
		id, pq.Array(paths),
	)
	if err != nil {
		return fmt.Errorf("記事画像パスの更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
