package model

import "testing"

func TestOrderStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status OrderStatus
		want   bool
	}{
		{"pendingは終端ではない", OrderStatusPending, false},
		{"paidは終端", OrderStatusPaid, true},
		{"completedは終端", OrderStatusCompleted, true},
		{"不明なステータスは終端ではない", OrderStatus("refunded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSiteResult_OK(t *testing.T) {
	success := SiteResult{Site: "Booked Impact", URL: "https://notion.so/page-1"}
	if !success.OK() {
		t.Error("URLありエラーなしの結果はOKであるべき")
	}

	failure := SiteResult{Site: "Seismic Sports", Err: "コンテンツの書き換えに失敗しました"}
	if failure.OK() {
		t.Error("エラーありの結果はOKではないべき")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewUnknownPlanError("Launch Special")
	if err.Code != ErrCodeUnknownPlan {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeUnknownPlan)
	}
	if err.Category != "billing" {
		t.Errorf("Category = %s, want billing", err.Category)
	}

	msg := err.Error()
	if msg == "" {
		t.Fatal("Error() は空文字列を返してはならない")
	}
	if msg != "[UNKNOWN_PLAN] 指定されたプランが見つかりません: Launch Special" {
		t.Errorf("Error() = %q", msg)
	}
}
