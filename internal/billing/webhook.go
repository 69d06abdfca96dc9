package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventCheckoutCompleted はチェックアウト完了イベントのタイプ名。
const EventCheckoutCompleted = "checkout.session.completed"

// defaultTolerance は署名タイムスタンプの許容ずれ幅。
const defaultTolerance = 5 * time.Minute

// Event は決済プラットフォームから受信するWebhookイベント。
type Event struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Session はイベントのデータ部をチェックアウトセッションとしてパースする。
func (e *Event) Session() (*CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(e.Data.Object, &session); err != nil {
		return nil, fmt.Errorf("チェックアウトセッションのパースに失敗しました: %w", err)
	}
	return &session, nil
}

// CheckoutSession はチェックアウト完了イベントのペイロード（必要なフィールドのみ）。
type CheckoutSession struct {
	ID              string `json:"id"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// Email は顧客メールアドレスを返す。
// customer_detailsを優先し、未設定ならトップレベルのcustomer_emailにフォールバックする。
func (s *CheckoutSession) Email() string {
	if s.CustomerDetails.Email != "" {
		return s.CustomerDetails.Email
	}
	return s.CustomerEmail
}

// ConstructEvent は署名ヘッダーを検証し、ペイロードをイベントとしてパースする。
// 署名形式は `t=<unix秒>,v1=<hex(HMAC-SHA256(secret, "<t>.<payload>"))>`。
// 署名不一致・ヘッダー欠落・タイムスタンプの許容ずれ超過はすべてエラーとなる。
func ConstructEvent(payload []byte, sigHeader, secret string, now time.Time) (*Event, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if d := now.Sub(time.Unix(timestamp, 0)); d > defaultTolerance || d < -defaultTolerance {
		return nil, fmt.Errorf("署名タイムスタンプが許容範囲外です")
	}

	expected := computeSignature(payload, timestamp, secret)
	verified := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, fmt.Errorf("署名が一致しません")
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("イベントJSONのパースに失敗しました: %w", err)
	}
	return &event, nil
}

// parseSignatureHeader は署名ヘッダーからタイムスタンプとv1署名のリストを取り出す。
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("署名ヘッダーがありません")
	}

	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("署名タイムスタンプのパースに失敗しました: %w", err)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 {
		return 0, nil, fmt.Errorf("署名ヘッダーにタイムスタンプがありません")
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("署名ヘッダーにv1署名がありません")
	}
	return timestamp, signatures, nil
}

// computeSignature は "<t>.<payload>" のHMAC-SHA256を16進文字列で返す。
func computeSignature(payload []byte, timestamp int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
