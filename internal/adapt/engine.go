package adapt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// defaultEndpoint はOpenAI互換チャット補完APIのエンドポイント。
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	// systemPrompt はリライト時のシステムプロンプト。
	systemPrompt = "You are an experienced editor who rewrites articles to match a publication's voice. Return only the rewritten article text, without commentary."
)

// Engine はテキスト生成APIを使用した記事リライトエンジン。
// 1サイト分のリライトは1回のAPI呼び出しで行い、リトライは行わない。
// 呼び出し失敗はそのサイト単体の失敗としてエラーを返す（隔離はオーケストレーター側で行う）。
type Engine struct {
	httpClient *http.Client
	logger     *slog.Logger
	profiles   *Profiles
	apiKey     string
	model      string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewEngine はEngineの新しいインスタンスを生成する。
func NewEngine(httpClient *http.Client, logger *slog.Logger, profiles *Profiles, apiKey, model string) *Engine {
	return &Engine{
		httpClient: httpClient,
		logger:     logger,
		profiles:   profiles,
		apiKey:     apiKey,
		model:      model,
		endpoint:   defaultEndpoint,
	}
}

// chatRequest はチャット補完APIのリクエストボディ。
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse はチャット補完APIのレスポンスボディ（必要なフィールドのみ）。
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Rewrite は記事本文を指定サイトのトーンに合わせてリライトする。
// プロファイル未定義のサイトは空ガイドラインのままリライトされる。
// 出力長の一致はプロンプト上の指示であり、検証は行わない。
func (e *Engine) Rewrite(ctx context.Context, content, site string) (string, error) {
	prompt := e.buildPrompt(content, site)

	body, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("リライトリクエストの構築に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Error("テキスト生成APIの呼び出しに失敗しました",
			slog.String("site", site),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("テキスト生成APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e.logger.Error("テキスト生成APIがエラーステータスを返しました",
			slog.String("site", site),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("テキスト生成APIがステータス %d を返しました: %s",
			resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("テキスト生成APIが空のレスポンスを返しました")
	}

	return parsed.Choices[0].Message.Content, nil
}

// buildPrompt はサイトのガイドラインと固定の5要件からリライトプロンプトを構築する。
func (e *Engine) buildPrompt(content, site string) string {
	guideline := e.profiles.Guideline(site)

	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the following article for the publication %q.\n\n", site)
	if guideline != "" {
		fmt.Fprintf(&b, "Publication voice and tone guideline:\n%s\n\n", guideline)
	}
	b.WriteString("Requirements:\n")
	b.WriteString("1. Match the publication's tone and voice.\n")
	b.WriteString("2. Preserve all key points of the original.\n")
	b.WriteString("3. Keep approximately the same length as the original.\n")
	b.WriteString("4. The result must read naturally, not like a mechanical rewrite.\n")
	b.WriteString("5. Make this version unique compared to versions written for other publications.\n\n")
	fmt.Fprintf(&b, "Original article:\n%s", content)

	return b.String()
}
