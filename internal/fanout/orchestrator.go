// Package fanout は1記事をN配信先へ並行展開するオーケストレーターを提供する。
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/pressrelay/internal/model"
)

// Adapter は記事リライト機能のインターフェース。
type Adapter interface {
	Rewrite(ctx context.Context, content, site string) (string, error)
}

// Publisher はページ配信機能のインターフェース。
// 失敗時もエラーではなくプレースホルダー文字列とfalseを返す。
type Publisher interface {
	Publish(ctx context.Context, title, content, site string) (string, bool)
}

// Notifier は配信完了通知のインターフェース。
type Notifier interface {
	SendUserConfirmation(ctx context.Context, to, title string, results []model.SiteResult) error
	SendOperatorSummary(ctx context.Context, title, submitterEmail string, results []model.SiteResult) error
}

// Recorder はファンアウトのメトリクス記録インターフェース。
type Recorder interface {
	ObserveFanOut(duration time.Duration, sites, succeeded int)
	IncAdaptation(success bool)
	IncPublication(success bool)
}

// Orchestrator は1回の記事投稿を2段階の並行フェーズと通知フェーズで処理する。
//
// Phase 1: 全サイトのリライトを並行実行し、全件の完了を待つ。
// Phase 2: リライト成功サイトのページ作成を並行実行し、全件の完了を待つ。
// Phase 3: 投稿者向け確認・運営者向けサマリーを必ず1回ずつ送信する。
//
// 各ブランチは個別にガードされ、1サイトの失敗（panicを含む）は
// そのサイトのエラープレースホルダーに変換されるだけで、他サイトや通知を妨げない。
// 途中経過は永続化されず、プロセスクラッシュ時の再開機構は持たない。
type Orchestrator struct {
	adapter       Adapter
	publisher     Publisher
	notifier      Notifier
	recorder      Recorder
	logger        *slog.Logger
	maxConcurrent int
}

// NewOrchestrator はOrchestratorの新しいインスタンスを生成する。
// maxConcurrentは各フェーズ内の同時実行ブランチ数の上限。
func NewOrchestrator(
	adapter Adapter,
	publisher Publisher,
	notifier Notifier,
	recorder Recorder,
	logger *slog.Logger,
	maxConcurrent int,
) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		adapter:       adapter,
		publisher:     publisher,
		notifier:      notifier,
		recorder:      recorder,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// Run は1記事のファンアウトを実行し、入力サイトと同数の結果リストを返す。
// サイト数が0でも通知フェーズは必ず実行される。
func (o *Orchestrator) Run(ctx context.Context, title, content string, sites []string, submitterEmail string) []model.SiteResult {
	start := time.Now()
	o.logger.Info("ファンアウトを開始します",
		slog.String("title", title),
		slog.Int("site_count", len(sites)),
	)

	results := make([]model.SiteResult, len(sites))
	for i, site := range sites {
		results[i].Site = site
	}

	// Phase 1: 全サイトのリライト
	adapted := make([]string, len(sites))
	o.runPhase(len(sites), func(i int) {
		text, err := o.rewriteGuarded(ctx, content, sites[i])
		if err != nil {
			results[i].Err = fmt.Sprintf("(adaptation failed: %v)", err)
			o.recorder.IncAdaptation(false)
			o.logger.Error("リライトに失敗しました",
				slog.String("site", sites[i]),
				slog.String("error", err.Error()),
			)
			return
		}
		adapted[i] = text
		o.recorder.IncAdaptation(true)
	})

	// Phase 2: リライト成功サイトのみページ作成
	o.runPhase(len(sites), func(i int) {
		if !results[i].OK() {
			return
		}
		outcome, ok := o.publishGuarded(ctx, title, adapted[i], sites[i])
		if !ok {
			results[i].Err = outcome
			o.recorder.IncPublication(false)
			return
		}
		results[i].URL = outcome
		o.recorder.IncPublication(true)
	})

	// Phase 3: 通知は結果に関わらず必ず1回ずつ。
	// 投稿者向けが失敗しても運営者向けは送信する。
	if err := o.notifier.SendUserConfirmation(ctx, submitterEmail, title, results); err != nil {
		o.logger.Error("投稿者向け通知の送信に失敗しました",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
	}
	if err := o.notifier.SendOperatorSummary(ctx, title, submitterEmail, results); err != nil {
		o.logger.Error("運営者向け通知の送信に失敗しました",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
	}

	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}
	o.recorder.ObserveFanOut(time.Since(start), len(sites), succeeded)
	o.logger.Info("ファンアウトが完了しました",
		slog.String("title", title),
		slog.Int("site_count", len(sites)),
		slog.Int("succeeded", succeeded),
		slog.Duration("duration", time.Since(start)),
	)

	return results
}

// runPhase はn個のブランチをセマフォで同時実行数を抑えつつ並行実行し、全件の完了を待つ。
func (o *Orchestrator) runPhase(n int, branch func(i int)) {
	sem := make(chan struct{}, o.maxConcurrent)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			branch(i)
		}(i)
	}
	wg.Wait()
}

// rewriteGuarded はリライト呼び出しをpanicからも保護する。
func (o *Orchestrator) rewriteGuarded(ctx context.Context, content, site string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("リライト処理でpanicが発生しました: %v", r)
		}
	}()
	return o.adapter.Rewrite(ctx, content, site)
}

// publishGuarded はページ作成呼び出しをpanicからも保護する。
func (o *Orchestrator) publishGuarded(ctx context.Context, title, content, site string) (outcome string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			outcome = fmt.Sprintf("(publication failed: panic: %v)", r)
			ok = false
			o.logger.Error("ページ作成処理でpanicが発生しました",
				slog.String("site", site),
			)
		}
	}()
	return o.publisher.Publish(ctx, title, content, site)
}
