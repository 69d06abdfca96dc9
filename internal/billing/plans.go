// Package billing はチェックアウトセッションの作成と決済Webhookの処理を提供する。
package billing

import (
	"github.com/hitoshi/pressrelay/internal/model"
)

// Plan は販売プランを表す。
type Plan struct {
	Name    string
	Amount  int64  // 請求額（最小通貨単位）
	PriceID string // 決済プラットフォーム上の価格ID
}

// planAmounts はプラン名から請求額へのマッピング。
// プランの顔ぶれは固定で、価格IDのみ環境変数から注入される。
var planAmounts = map[string]int64{
	"Launch Special": 4900,
	"Standard":       9900,
	"Agency":         29900,
}

// Catalog はプラン名から決済可能なプランを解決する。
type Catalog struct {
	priceIDs map[string]string
}

// NewCatalog はプラン名→価格IDマッピングからCatalogを生成する。
func NewCatalog(priceIDs map[string]string) *Catalog {
	return &Catalog{priceIDs: priceIDs}
}

// Resolve はプラン名を決済可能なプランに解決する。
// 未知のプラン名、または価格IDが未設定のプランはエラーを返す。
func (c *Catalog) Resolve(planName string) (*Plan, error) {
	amount, ok := planAmounts[planName]
	if !ok {
		return nil, model.NewUnknownPlanError(planName)
	}

	priceID := c.priceIDs[planName]
	if priceID == "" {
		return nil, model.NewPricingNotSetError(planName)
	}

	return &Plan{Name: planName, Amount: amount, PriceID: priceID}, nil
}
