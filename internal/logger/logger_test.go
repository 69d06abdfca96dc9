package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetup_OutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("テストメッセージ", "key", "value")

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("ログ出力がJSONとしてパースできない: %v", err)
	}
	if entry["msg"] != "テストメッセージ" {
		t.Errorf("msg = %v, want テストメッセージ", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestSetup_DefaultLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("デバッグメッセージ")

	if buf.Len() != 0 {
		t.Errorf("デフォルトレベルではDEBUGログは出力されないべき: %s", buf.String())
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"debug指定", "debug", "DEBUG"},
		{"warn指定", "warn", "WARN"},
		{"error指定", "error", "ERROR"},
		{"未設定", "", "INFO"},
		{"不明な値", "verbose", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			got := levelFromEnv().String()
			if got != tt.want {
				t.Errorf("levelFromEnv() = %s, want %s", got, tt.want)
			}
		})
	}
}
