package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/pressrelay/internal/middleware"
	"github.com/hitoshi/pressrelay/internal/model"
)

// ArticleRepoInterface は記事ハンドラーが必要とする永続化インターフェース。
type ArticleRepoInterface interface {
	Create(ctx context.Context, article *model.Article) error
	ListByUser(ctx context.Context, userID string) ([]*model.Article, error)
	UpdateStatus(ctx context.Context, id string, status model.ArticleStatus) error
	UpdateImagePaths(ctx context.Context, id string, paths []string) error
}

// ImageStorer は記事画像の取得・保存インターフェース。
type ImageStorer interface {
	Store(ctx context.Context, articleID string, urls []string) ([]string, error)
}

// FanOutRunner は記事ファンアウトの実行インターフェース。
type FanOutRunner interface {
	Run(ctx context.Context, title, content string, sites []string, submitterEmail string) []model.SiteResult
}

// SubmissionNoteSender は投稿通知（ベストエフォート）のインターフェース。
type SubmissionNoteSender interface {
	SendOwnerSubmissionNote(ctx context.Context, userEmail, title string)
}

// UserFinder は投稿者情報の参照インターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// ArticleHandler は記事の投稿・一覧・ファンアウト処理のHTTPハンドラー。
type ArticleHandler struct {
	repo         ArticleRepoInterface
	images       ImageStorer
	orchestrator FanOutRunner
	noteSender   SubmissionNoteSender
	users        UserFinder
	minWords     int
}

// NewArticleHandler はArticleHandlerを生成する。
// minWordsは投稿受付時の本文の最低語数。
func NewArticleHandler(
	repo ArticleRepoInterface,
	images ImageStorer,
	orchestrator FanOutRunner,
	noteSender SubmissionNoteSender,
	users UserFinder,
	minWords int,
) *ArticleHandler {
	return &ArticleHandler{
		repo:         repo,
		images:       images,
		orchestrator: orchestrator,
		noteSender:   noteSender,
		users:        users,
		minWords:     minWords,
	}
}

// createArticleRequest は記事投稿リクエストのボディ。
type createArticleRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	SelectedSites []string `json:"selected_sites"`
	ImageURLs     []string `json:"image_urls"`
}

// articleResponse は記事情報のAPIレスポンス。
type articleResponse struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	SelectedSites []string `json:"selected_sites"`
	Status        string   `json:"status"`
	ImagePaths    []string `json:"image_paths"`
	CreatedAt     string   `json:"created_at"`
}

// processArticleRequest はファンアウト実行リクエストのボディ。
// 記事の実体ではなく内容そのものを受け取る。本文の検証は投稿受付時に済んでいる前提で、
// このエンドポイントは呼び出し元を信頼する。
// article_idは任意で、指定された場合のみ配信成功時に記事の状態が更新される。
type processArticleRequest struct {
	ArticleID     string   `json:"article_id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	SelectedSites []string `json:"selected_sites"`
	UserEmail     string   `json:"user_email"`
}

// processArticleResponse はファンアウト実行のレスポンス。
// 個々のサイトの失敗はversions内のエラープレースホルダーとして表現され、
// レスポンス全体としては常に成功となる。
type processArticleResponse struct {
	Success  bool               `json:"success"`
	Versions []model.SiteResult `json:"versions"`
	Message  string             `json:"message"`
}

// CreateArticle は記事投稿を処理する。
// 本文の語数が下限に満たない場合、画像が上限を超える場合は400を返す。
// POST /api/articles
func (h *ArticleHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	var req createArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "タイトルが空です。",
			Category: "validation",
			Action:   "タイトルを入力してください。",
		})
		return
	}

	// 語数の下限チェックは投稿受付時のみ行う（ファンアウト側では検証しない）
	if words := len(strings.Fields(req.Content)); words < h.minWords {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewArticleTooShortError(words, h.minWords))
		return
	}

	now := time.Now()
	article := &model.Article{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         req.Title,
		Content:       req.Content,
		SelectedSites: req.SelectedSites,
		Status:        model.ArticleStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.repo.Create(r.Context(), article); err != nil {
		handleServiceError(w, err)
		return
	}

	// 画像の取得・保存（URL検証失敗は記事を残したまま400系で返す）
	if len(req.ImageURLs) > 0 {
		paths, err := h.images.Store(r.Context(), article.ID, req.ImageURLs)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if len(paths) > 0 {
			if err := h.repo.UpdateImagePaths(r.Context(), article.ID, paths); err != nil {
				handleServiceError(w, err)
				return
			}
			article.ImagePaths = paths
		}
	}

	// 運営者への投稿通知はベストエフォート
	if user, err := h.users.FindByID(r.Context(), userID); err == nil && user != nil {
		h.noteSender.SendOwnerSubmissionNote(r.Context(), user.Email, article.Title)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toArticleResponse(article))
}

// ListArticles は自分の記事一覧を取得する。
// GET /api/articles
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	articles, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, toArticleResponse(a))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// ProcessArticle は記事のファンアウトを実行する。
// 個々のサイトの失敗はレスポンスを失敗させず、versions内のエラープレースホルダーになる。
// POST /api/articles/process
func (h *ArticleHandler) ProcessArticle(w http.ResponseWriter, r *http.Request) {
	var req processArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	results := h.orchestrator.Run(r.Context(), req.Title, req.Content, req.SelectedSites, req.UserEmail)

	succeeded := 0
	for _, res := range results {
		if res.OK() {
			succeeded++
		}
	}

	// 1サイト以上成功した場合のみ記事を配信済みに更新する。
	// 更新失敗はログに残すがレスポンスは失敗させない（配信自体は完了しているため）。
	if req.ArticleID != "" && succeeded > 0 {
		if err := h.repo.UpdateStatus(r.Context(), req.ArticleID, model.ArticleStatusPublished); err != nil {
			slog.Error("記事状態の更新に失敗しました",
				slog.String("article_id", req.ArticleID),
				slog.String("error", err.Error()),
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(processArticleResponse{
		Success:  true,
		Versions: results,
		Message:  processMessage(succeeded, len(results)),
	})
}

// processMessage はファンアウト結果のサマリーメッセージを生成する。
func processMessage(succeeded, total int) string {
	switch {
	case total == 0:
		return "No sites were selected."
	case succeeded == total:
		return "Article distributed to all selected sites."
	case succeeded == 0:
		return "Article distribution failed for all selected sites."
	default:
		return "Article distributed with some failures."
	}
}

// toArticleResponse はmodel.ArticleからAPIレスポンスに変換する。
func toArticleResponse(a *model.Article) articleResponse {
	return articleResponse{
		ID:            a.ID,
		Title:         a.Title,
		Content:       a.Content,
		SelectedSites: a.SelectedSites,
		Status:        string(a.Status),
		ImagePaths:    a.ImagePaths,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}
