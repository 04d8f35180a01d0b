package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "valid otlp",
			cfg:  Config{ServiceName: "svc", MetricsExporter: "otlp", TracingExporter: "otlp", SamplePct: 0.5},
		},
		{
			name: "valid none",
			cfg:  Config{ServiceName: "svc", MetricsExporter: "none", TracingExporter: "none"},
		},
		{
			name: "valid empty exporters",
			cfg:  Config{ServiceName: "svc"},
		},
		{
			name: "prometheus metrics only",
			cfg:  Config{ServiceName: "svc", MetricsExporter: "prometheus"},
		},
		{
			name:    "missing service name",
			cfg:     Config{MetricsExporter: "none", TracingExporter: "none"},
			wantErr: ErrMissingServiceName,
		},
		{
			name:    "prometheus is not a tracing exporter",
			cfg:     Config{ServiceName: "svc", TracingExporter: "prometheus"},
			wantErr: ErrInvalidTracingExporter,
		},
		{
			name:    "unknown metrics exporter",
			cfg:     Config{ServiceName: "svc", MetricsExporter: "statsd"},
			wantErr: ErrInvalidMetricsExporter,
		},
		{
			name:    "sample pct above one",
			cfg:     Config{ServiceName: "svc", SamplePct: 1.5},
			wantErr: ErrInvalidSamplePct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserverDisabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{
		ServiceName:     "g2a-connect-test",
		MetricsExporter: "none",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	defer obs.Shutdown(context.Background())

	if obs.Logger() == nil || obs.Metrics() == nil || obs.Tracer() == nil {
		t.Fatal("disabled observer must still provide no-op primitives")
	}

	// No-op pipeline must be callable end to end.
	obs.Metrics().RecordRequest(context.Background(), "products", time.Millisecond, "ok", 0)
	_, span := obs.Tracer().StartCall(context.Background(), CallMeta{Endpoint: "products"})
	obs.Tracer().EndCall(span, nil)

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "dropped")
	logger.Info(context.Background(), "dropped too")
	logger.Warn(context.Background(), "kept")
	logger.Error(context.Background(), "also kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"kept"`) || !strings.Contains(lines[1], `"also kept"`) {
		t.Fatalf("unexpected log output: %q", buf.String())
	}
}

func TestLoggerRedactsCredentialFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "auth headers set",
		F("api_key", "qwertyuiopasdfgh"),
		F("api_hash", "deadbeefcafe"),
		F("endpoint", "orders"),
	)

	out := buf.String()
	if strings.Contains(out, "qwertyuiopasdfgh") || strings.Contains(out, "deadbeefcafe") {
		t.Fatalf("credential leaked into log output: %q", out)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if entry["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v, want [REDACTED]", entry["api_key"])
	}
	if entry["endpoint"] != "orders" {
		t.Errorf("endpoint = %v, want orders", entry["endpoint"])
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).With(F("component", "transport"))

	logger.Info(context.Background(), "first")
	logger.Info(context.Background(), "second", F("attempt", 1))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, `"component":"transport"`) {
			t.Fatalf("bound field missing from line %q", line)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCallMetaSpanName(t *testing.T) {
	meta := CallMeta{Endpoint: "orders.pay", Method: "PUT"}
	if got := meta.SpanName(); got != "g2a.call.orders.pay" {
		t.Errorf("SpanName() = %q, want g2a.call.orders.pay", got)
	}
}

type recordingMetrics struct {
	endpoint string
	outcome  string
	retries  int64
	calls    int
}

func (m *recordingMetrics) RecordRequest(_ context.Context, endpoint string, _ time.Duration, outcome string, retries int64) {
	m.endpoint = endpoint
	m.outcome = outcome
	m.retries = retries
	m.calls++
}

func TestInstrumentCall(t *testing.T) {
	obs := NewNopObserver()
	rec := &recordingMetrics{}
	in := NewInstrument(obs)
	in.metrics = rec

	meta := CallMeta{Endpoint: "products", Method: "GET", RequestID: "req-1"}

	err := in.Call(context.Background(), meta, func(context.Context) (Outcome, error) {
		return Outcome{Retries: 2}, nil
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if rec.outcome != "ok" || rec.retries != 2 || rec.endpoint != "products" {
		t.Fatalf("recorded %+v, want ok outcome with 2 retries on products", rec)
	}

	wantErr := errors.New("partner unavailable")
	err = in.Call(context.Background(), meta, func(context.Context) (Outcome, error) {
		return Outcome{Code: "API_ERROR", Retries: 3}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Call() error = %v, want %v", err, wantErr)
	}
	if rec.outcome != "API_ERROR" || rec.calls != 2 {
		t.Fatalf("recorded outcome %q after %d calls, want API_ERROR after 2", rec.outcome, rec.calls)
	}
}
