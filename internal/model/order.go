package model

import "time"

// OrderStatus は注文のライフサイクル状態を表す。
type OrderStatus string

const (
	// OrderStatusPending はチェックアウトセッション作成直後の未決済状態。
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid は決済完了状態。completedと同義の終端状態として扱う。
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCompleted は決済完了状態（Webhookハンドラーが設定する終端状態）。
	OrderStatusCompleted OrderStatus = "completed"
)

// IsTerminal は決済完了の終端状態かどうかを返す。
// paidとcompletedは同じ「決済成功」を意味する別名として扱う。
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCompleted
}

// Order は1回のチェックアウト（購入）とそのライフサイクルを表す。
// チェックアウトセッション参照ごとにちょうど1件存在する。
// statusは前方（pending → paid/completed）にのみ遷移し、後退しない。
type Order struct {
	ID            string
	SessionID     string // 外部チェックアウトセッション参照
	PlanName      string
	Amount        int64 // 請求額（最小通貨単位）
	Status        OrderStatus
	UserID        string // 未認証購入の場合は空。後からクレームで設定される
	CustomerEmail string // Webhook受信時に設定される
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
