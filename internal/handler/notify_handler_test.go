package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockNotifyService はNotifyServiceInterfaceのモック。
type mockNotifyService struct {
	confirmationErr  error
	confirmationTo   string
	confirmationCnt  int
	signupNoteCnt    int
	submissionNoteTo string
	submissionNotes  int
}

func (m *mockNotifyService) SendSubmissionReceived(ctx context.Context, to, title string) error {
	m.confirmationCnt++
	m.confirmationTo = to
	return m.confirmationErr
}

func (m *mockNotifyService) SendOwnerSignupNote(ctx context.Context, userEmail string) {
	m.signupNoteCnt++
}

func (m *mockNotifyService) SendOwnerSubmissionNote(ctx context.Context, userEmail, title string) {
	m.submissionNotes++
	m.submissionNoteTo = userEmail
}

func TestNotifyHandler_SendConfirmation_Success(t *testing.T) {
	service := &mockNotifyService{}
	h := NewNotifyHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/confirmation",
		strings.NewReader(`{"user_email":"user@example.com","article_title":"Growth Tips"}`))
	rec := httptest.NewRecorder()

	h.SendConfirmation(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"sent":true`) {
		t.Errorf("レスポンス = %s", rec.Body.String())
	}
	if service.confirmationCnt != 1 || service.confirmationTo != "user@example.com" {
		t.Errorf("送信回数 = %d, 送信先 = %s", service.confirmationCnt, service.confirmationTo)
	}
}

func TestNotifyHandler_SendConfirmation_DispatcherFailure(t *testing.T) {
	// 確認メールの送信失敗はこのエンドポイントに限り500として返す
	service := &mockNotifyService{confirmationErr: errors.New("resend unavailable")}
	h := NewNotifyHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/confirmation",
		strings.NewReader(`{"user_email":"user@example.com","article_title":"Growth Tips"}`))
	rec := httptest.NewRecorder()

	h.SendConfirmation(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "EMAIL_SEND_FAILED") {
		t.Errorf("レスポンス = %s", rec.Body.String())
	}
}

func TestNotifyHandler_SendConfirmation_MissingEmail(t *testing.T) {
	service := &mockNotifyService{}
	h := NewNotifyHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/confirmation",
		strings.NewReader(`{"article_title":"Growth Tips"}`))
	rec := httptest.NewRecorder()

	h.SendConfirmation(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if service.confirmationCnt != 0 {
		t.Error("送信先なしでは送信されてはならない")
	}
}

func TestNotifyHandler_SendOwnerSignup(t *testing.T) {
	service := &mockNotifyService{}
	h := NewNotifyHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/owner/signup",
		strings.NewReader(`{"email":"new@example.com"}`))
	rec := httptest.NewRecorder()

	h.SendOwnerSignup(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("レスポンス = %s", rec.Body.String())
	}
	if service.signupNoteCnt != 1 {
		t.Errorf("登録通知の回数 = %d, want 1", service.signupNoteCnt)
	}
}

func TestNotifyHandler_SendOwnerSubmission(t *testing.T) {
	service := &mockNotifyService{}
	h := NewNotifyHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/owner/submission",
		strings.NewReader(`{"email":"user@example.com","article_title":"Growth Tips"}`))
	rec := httptest.NewRecorder()

	h.SendOwnerSubmission(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if service.submissionNotes != 1 || service.submissionNoteTo != "user@example.com" {
		t.Errorf("投稿通知の回数 = %d, 送信先 = %s", service.submissionNotes, service.submissionNoteTo)
	}
}

func TestNotifyHandler_OwnerNote_MissingEmail(t *testing.T) {
	service := &mockNotifyService{}
	h := NewNotifyHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/owner/signup",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.SendOwnerSignup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if service.signupNoteCnt != 0 {
		t.Error("メールアドレスなしでは通知されてはならない")
	}
}
