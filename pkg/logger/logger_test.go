package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return event
}

func TestCloudRunHandler_Shape(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelInfo))

	log.With("request_id", "r1").Warn("upstream slow", "error", errors.New("timeout"), "status", 504)

	event := decodeLine(t, &buf)
	if event["severity"] != "WARNING" || event["message"] != "upstream slow" {
		t.Errorf("unexpected event: %v", event)
	}
	data, _ := event["data"].(map[string]any)
	if data["request_id"] != "r1" || data["error"] != "timeout" || data["status"] != 504.0 {
		t.Errorf("unexpected data: %v", data)
	}
}

func TestCloudRunHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelInfo))

	log.WithGroup("widget").With("id", "w1").Info("tick", "seq", 3)

	data, _ := decodeLine(t, &buf)["data"].(map[string]any)
	widget, _ := data["widget"].(map[string]any)
	if widget["id"] != "w1" || widget["seq"] != 3.0 {
		t.Errorf("unexpected grouping: %v", data)
	}
}

func TestCloudRunHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelWarn))

	log.Info("hidden")

	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelDebug))

	_, ctx := With(ToContext(context.Background(), log), "widget_id", "w1")
	FromContext(ctx).Debug("hello")

	data, _ := decodeLine(t, &buf)["data"].(map[string]any)
	if data["widget_id"] != "w1" {
		t.Errorf("context logger lost attrs: %v", data)
	}
	if !IsDebugEnabled(ctx) {
		t.Error("expected debug enabled")
	}
}
