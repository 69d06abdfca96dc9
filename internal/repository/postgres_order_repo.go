package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/pressrelay/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

// Create は注文を作成する。
func (r *PostgresOrderRepo) Create(ctx context.Context, order *model.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (id, session_id, plan_name, amount, status,
		                     user_id, customer_email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.ID, order.SessionID, order.PlanName, order.Amount, order.Status,
		nullString(order.UserID), nullString(order.CustomerEmail),
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("注文の作成に失敗しました: %w", err)
	}
	return nil
}

// FindBySessionID はチェックアウトセッションIDで注文を検索する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	order := &model.Order{}
	var userID, customerEmail sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, plan_name, amount, status,
		        user_id, customer_email, created_at, updated_at
		 FROM orders WHERE session_id = $1`,
		sessionID,
	).Scan(
		&order.ID, &order.SessionID, &order.PlanName, &order.Amount, &order.Status,
		&userID, &customerEmail, &order.CreatedAt, &order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("注文の検索に失敗しました: %w", err)
	}

	order.UserID = nullStringValue(userID)
	order.CustomerEmail = nullStringValue(customerEmail)

	return order, nil
}

// MarkCompleted は注文を決済完了状態に更新し、顧客メールアドレスを保存する。
// ステータスは前方遷移のみ許可する（pendingの注文のみ更新される）。
// 未知のセッションIDや処理済みの注文では更新行数0を返す。
func (r *PostgresOrderRepo) MarkCompleted(ctx context.Context, sessionID, customerEmail string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET
		    status = $2,
		    customer_email = $3,
		    updated_at = now()
		 WHERE session_id = $1 AND status = $4`,
		sessionID, model.OrderStatusCompleted, nullString(customerEmail), model.OrderStatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("注文の決済完了更新に失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return rows, nil
}

// AttachUser は未認証購入の注文にユーザーIDを後付けする。
// user_idが設定済みの注文は対象外となる。
func (r *PostgresOrderRepo) AttachUser(ctx context.Context, sessionID, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET user_id = $2, updated_at = now()
		 WHERE session_id = $1 AND user_id IS NULL`,
		sessionID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("注文へのユーザー紐付けに失敗しました: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	return rows, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
