package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/pressrelay/internal/model"
)

// EmailSender はメール送信機能のインターフェース。
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// EmailRecorder はメール送信成功のメトリクス記録インターフェース。
type EmailRecorder interface {
	RecordEmailSent()
}

// nopRecorder はメトリクス収集を行わないEmailRecorder。
type nopRecorder struct{}

func (nopRecorder) RecordEmailSent() {}

// Dispatcher は投稿・決済・登録に伴う各種通知メールを組み立てて送信する。
// 記事由来の文字列（タイトル等）はHTML本文に含める前にサニタイズする。
type Dispatcher struct {
	sender     EmailSender
	logger     *slog.Logger
	ownerEmail string
	recorder   EmailRecorder
	policy     *bluemonday.Policy
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
// ownerEmailは運営者向け通知の固定宛先。recorderはnilを許容する。
func NewDispatcher(sender EmailSender, logger *slog.Logger, ownerEmail string, recorder EmailRecorder) *Dispatcher {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Dispatcher{
		sender:     sender,
		logger:     logger,
		ownerEmail: ownerEmail,
		recorder:   recorder,
		policy:     bluemonday.StrictPolicy(),
	}
}

// send はメールを送信し、成功時にメトリクスを記録する。
func (d *Dispatcher) send(ctx context.Context, to, subject, html string) error {
	if err := d.sender.Send(ctx, to, subject, html); err != nil {
		return err
	}
	d.recorder.RecordEmailSent()
	return nil
}

// SendUserConfirmation は投稿者に配信完了の確認メールを送信する。
func (d *Dispatcher) SendUserConfirmation(ctx context.Context, to, title string, results []model.SiteResult) error {
	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}

	safeTitle := d.policy.Sanitize(title)

	var b strings.Builder
	b.WriteString("<h2>Your article has been distributed</h2>")
	fmt.Fprintf(&b, "<p>We finished processing <strong>%s</strong>.</p>", safeTitle)
	fmt.Fprintf(&b, "<p>%d of %d site versions were published successfully.</p>", succeeded, len(results))
	b.WriteString("<p>Thank you for using Press Relay.</p>")

	subject := fmt.Sprintf("Your article %q has been distributed", title)
	if err := d.send(ctx, to, subject, b.String()); err != nil {
		return fmt.Errorf("投稿者向け確認メールの送信に失敗しました: %w", err)
	}
	return nil
}

// SendOperatorSummary は運営者に全サイトの配信結果サマリーを送信する。
// リクエストされた全サイトについて1件ずつ<li>を出力し、
// 成功サイトはリンク、失敗サイトはプレースホルダー文字列をそのまま表示する。
func (d *Dispatcher) SendOperatorSummary(ctx context.Context, title, submitterEmail string, results []model.SiteResult) error {
	safeTitle := d.policy.Sanitize(title)

	var b strings.Builder
	b.WriteString("<h2>Article distribution summary</h2>")
	fmt.Fprintf(&b, "<p>Title: <strong>%s</strong></p>", safeTitle)
	fmt.Fprintf(&b, "<p>Submitted by: %s</p>", d.policy.Sanitize(submitterEmail))
	b.WriteString("<ul>")
	for _, r := range results {
		site := d.policy.Sanitize(r.Site)
		if r.OK() {
			fmt.Fprintf(&b, `<li>%s: <a href="%s">%s</a></li>`, site, r.URL, r.URL)
		} else {
			fmt.Fprintf(&b, "<li>%s: %s</li>", site, d.policy.Sanitize(r.Err))
		}
	}
	b.WriteString("</ul>")

	subject := fmt.Sprintf("Distribution summary: %s", title)
	if err := d.send(ctx, d.ownerEmail, subject, b.String()); err != nil {
		return fmt.Errorf("運営者向けサマリーメールの送信に失敗しました: %w", err)
	}
	return nil
}

// SendSubmissionReceived は投稿直後に、投稿者へ受付確認メールを送信する。
// 配信完了メール（SendUserConfirmation）とは別の、処理開始を知らせるメールである。
func (d *Dispatcher) SendSubmissionReceived(ctx context.Context, to, title string) error {
	safeTitle := d.policy.Sanitize(title)

	var b strings.Builder
	b.WriteString("<h2>We received your article</h2>")
	fmt.Fprintf(&b, "<p><strong>%s</strong> is now being prepared for distribution.</p>", safeTitle)
	b.WriteString("<p>You will receive another email when every site version has been processed.</p>")

	subject := fmt.Sprintf("Article received: %s", title)
	if err := d.send(ctx, to, subject, b.String()); err != nil {
		return fmt.Errorf("投稿受付メールの送信に失敗しました: %w", err)
	}
	return nil
}

// SendPurchaseConfirmation は決済完了時に購入者へプラン名入りの確認メールを送信する。
func (d *Dispatcher) SendPurchaseConfirmation(ctx context.Context, to, planName string) error {
	var b strings.Builder
	b.WriteString("<h2>Thank you for your purchase</h2>")
	fmt.Fprintf(&b, "<p>Your payment for the <strong>%s</strong> plan has been confirmed.</p>", d.policy.Sanitize(planName))
	b.WriteString("<p>You can now submit your article for distribution.</p>")

	subject := fmt.Sprintf("Payment confirmed: %s plan", planName)
	if err := d.send(ctx, to, subject, b.String()); err != nil {
		return fmt.Errorf("購入確認メールの送信に失敗しました: %w", err)
	}
	return nil
}

// SendOwnerSignupNote は新規ユーザー登録を運営者に通知する。
// ベストエフォートであり、失敗はログに記録するだけで呼び出し元には返さない。
func (d *Dispatcher) SendOwnerSignupNote(ctx context.Context, userEmail string) {
	html := fmt.Sprintf("<p>New user signed up: %s</p>", d.policy.Sanitize(userEmail))
	if err := d.send(ctx, d.ownerEmail, "New user signup", html); err != nil {
		d.logger.Error("登録通知メールの送信に失敗しました",
			slog.String("user_email", userEmail),
			slog.String("error", err.Error()),
		)
	}
}

// SendOwnerSubmissionNote は新規記事投稿を運営者に通知する。
// ベストエフォートであり、失敗はログに記録するだけで呼び出し元には返さない。
func (d *Dispatcher) SendOwnerSubmissionNote(ctx context.Context, userEmail, title string) {
	html := fmt.Sprintf("<p>New article submitted by %s: <strong>%s</strong></p>",
		d.policy.Sanitize(userEmail), d.policy.Sanitize(title))
	if err := d.send(ctx, d.ownerEmail, "New article submission", html); err != nil {
		d.logger.Error("投稿通知メールの送信に失敗しました",
			slog.String("user_email", userEmail),
			slog.String("error", err.Error()),
		)
	}
}
