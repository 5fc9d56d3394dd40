package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]string{"ok": "true"})
}

func TestNewBaseDefaults(t *testing.T) {
	b := NewBase("calculator", nil)

	if b.Name != "calculator" {
		t.Errorf("Name = %q, want %q", b.Name, "calculator")
	}
	if !strings.HasPrefix(b.ID, "calculator-") {
		t.Errorf("ID = %q, want calculator-<suffix>", b.ID)
	}
	if len(b.ID) <= len("calculator-") {
		t.Error("ID should carry a generated suffix")
	}
	if b.ShutdownTimeout <= 0 {
		t.Error("ShutdownTimeout should default to a positive value")
	}
}

func TestRegisterCapability(t *testing.T) {
	tests := []struct {
		name    string
		cap     Capability
		wantErr bool
	}{
		{
			name: "valid capability gets default endpoint",
			cap:  Capability{Name: "do_thing", Handler: okHandler},
		},
		{
			name:    "missing name",
			cap:     Capability{Handler: okHandler},
			wantErr: true,
		},
		{
			name:    "missing handler",
			cap:     Capability{Name: "no_handler"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBase("test-tool", nil)
			err := b.RegisterCapability(tt.cap)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RegisterCapability() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			caps := b.GetCapabilities()
			if len(caps) != 1 {
				t.Fatalf("got %d capabilities, want 1", len(caps))
			}
			if caps[0].Endpoint != "/api/capabilities/do_thing" {
				t.Errorf("Endpoint = %q, want default", caps[0].Endpoint)
			}
		})
	}
}

func TestRegisterCapabilityDuplicateEndpoint(t *testing.T) {
	b := NewBase("test-tool", nil)

	if err := b.RegisterCapability(Capability{Name: "dup", Handler: okHandler}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := b.RegisterCapability(Capability{Name: "dup", Handler: okHandler}); err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func TestHealthEndpoint(t *testing.T) {
	b := NewBase("test-tool", nil)
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	b := NewBase("test-tool", nil)
	b.ShutdownTimeout = 2 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx, 0, nil)
	}()

	// Give the listener a moment, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Start() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}

func TestGenerateJSONSchema(t *testing.T) {
	cap := Capability{
		Name:        "get_price_change",
		Description: "Computes price change",
		InputSummary: &SchemaSummary{
			RequiredFields: []FieldHint{
				{Name: "ticker", Type: "string", Example: "AAPL"},
				{Name: "days", Type: "number", Description: "Trading-day lookback"},
			},
			OptionalFields: []FieldHint{
				{Name: "verbose", Type: "boolean"},
			},
		},
	}

	schema := generateJSONSchema(cap)

	required, ok := schema["required"].([]string)
	if !ok || len(required) != 2 {
		t.Fatalf("required = %v, want [ticker days]", schema["required"])
	}

	properties := schema["properties"].(map[string]interface{})
	if _, ok := properties["verbose"]; !ok {
		t.Error("optional field missing from properties")
	}
	daysProp := properties["days"].(map[string]interface{})
	if daysProp["description"] != "Trading-day lookback" {
		t.Errorf("days description = %v", daysProp["description"])
	}
}

func TestHTTPStatusForCategory(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryInputError, http.StatusBadRequest},
		{CategoryNotFound, http.StatusNotFound},
		{CategoryAuthError, http.StatusUnauthorized},
		{CategoryRateLimit, http.StatusTooManyRequests},
		{CategoryServiceError, http.StatusServiceUnavailable},
		{ErrorCategory("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatusForCategory(tt.category); got != tt.want {
			t.Errorf("HTTPStatusForCategory(%s) = %d, want %d", tt.category, got, tt.want)
		}
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, &Error{
		Code:     "TICKER_NOT_FOUND",
		Message:  "Ticker not found",
		Category: CategoryNotFound,
	})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var envelope Response
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if envelope.Success {
		t.Error("Success should be false")
	}
	if envelope.Data != nil {
		t.Error("Data should be absent on failure")
	}
	if envelope.Error == nil || envelope.Error.Code != "TICKER_NOT_FOUND" {
		t.Errorf("Error = %+v, want TICKER_NOT_FOUND", envelope.Error)
	}
}
