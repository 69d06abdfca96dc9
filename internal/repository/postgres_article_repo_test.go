package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/pressrelay/internal/model"
)

// PostgresArticleRepoはArticleRepositoryインターフェースを満たすことを検証
func TestPostgresArticleRepo_ImplementsInterface(t *testing.T) {
	var _ ArticleRepository = (*PostgresArticleRepo)(nil)
}

func TestNewPostgresArticleRepo_Initializes(t *testing.T) {
	repo := NewPostgresArticleRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Articleモデルのフィールドが正しく構築されることを検証
func TestPostgresArticleRepo_ArticleModel_Fields(t *testing.T) {
	now := time.Now()
	article := &model.Article{
		ID:            "article-id-1",
		UserID:        "user-id-1",
		Title:         "Growth Tips",
		Content:       "本文テキスト",
		SelectedSites: []string{"Booked Impact", "Seismic Sports"},
		Status:        model.ArticleStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if len(article.SelectedSites) != 2 {
		t.Errorf("SelectedSites数 = %d, want 2", len(article.SelectedSites))
	}
	if article.Status != model.ArticleStatusPending {
		t.Errorf("article.Status = %q, want %q", article.Status, model.ArticleStatusPending)
	}
	// 画像は任意（0〜3件）
	if article.ImagePaths != nil {
		t.Error("image_paths should be nil by default")
	}
}

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}
