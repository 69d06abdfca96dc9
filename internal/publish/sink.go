package publish

import (
	"context"
	"fmt"
	"log/slog"
)

// PageCreator はページ作成APIのインターフェース。
type PageCreator interface {
	CreatePage(ctx context.Context, title, content string) (string, error)
}

// Sink はページ作成の失敗を境界の内側で吸収する配信シンク。
// Publishはエラーを決して伝播させず、失敗時はURLの代わりに
// 人間が読めるプレースホルダー文字列を返す。
// あるサイトのシンク失敗が他サイトの配信を妨げないための設計である。
type Sink struct {
	creator PageCreator
	logger  *slog.Logger
}

// NewSink はSinkの新しいインスタンスを生成する。
func NewSink(creator PageCreator, logger *slog.Logger) *Sink {
	return &Sink{creator: creator, logger: logger}
}

// Publish はリライト済み記事を "{title} - {site}" というタイトルのページとして作成する。
// 成功時はページURLとtrue、失敗時はエラー内容を示すプレースホルダー文字列とfalseを返す。
func (s *Sink) Publish(ctx context.Context, title, content, site string) (string, bool) {
	pageTitle := fmt.Sprintf("%s - %s", title, site)

	url, err := s.creator.CreatePage(ctx, pageTitle, content)
	if err != nil {
		s.logger.Error("ページの作成に失敗しました",
			slog.String("site", site),
			slog.String("page_title", pageTitle),
			slog.String("error", err.Error()),
		)
		return fmt.Sprintf("(publication failed: %v)", err), false
	}

	s.logger.Info("ページを作成しました",
		slog.String("site", site),
		slog.String("url", url),
	)
	return url, true
}
