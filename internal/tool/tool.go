// Package tool provides the base for passive tool services: components that
// register named capabilities, serve them over HTTP, and respond to requests
// from hosting agents. Tools never discover or call other components.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itsneelabh/stockbrief/internal/logging"
)

// FieldHint is a compact description of one input field, used to generate
// a JSON Schema for agents that validate payloads before calling.
type FieldHint struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Example     string `json:"example,omitempty"`
	Description string `json:"description,omitempty"`
}

// SchemaSummary lists the input fields of a capability.
type SchemaSummary struct {
	RequiredFields []FieldHint `json:"required_fields,omitempty"`
	OptionalFields []FieldHint `json:"optional_fields,omitempty"`
}

// Capability is one externally invokable operation with the metadata a
// hosting agent framework consumes to decide when to call it.
type Capability struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Endpoint     string         `json:"endpoint"`
	InputTypes   []string       `json:"input_types"`
	OutputTypes  []string       `json:"output_types"`
	InputSummary *SchemaSummary `json:"-"`

	Handler http.HandlerFunc `json:"-"`
}

// Base provides capability registration and the HTTP serving lifecycle.
type Base struct {
	ID     string
	Name   string
	Logger logging.Logger

	// Server timeouts. Zero values fall back to the defaults set by NewBase.
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	capMutex     sync.RWMutex
	capabilities []Capability

	mux                *http.ServeMux
	server             *http.Server
	registeredPatterns map[string]bool
}

// NewBase creates a tool base with a generated component ID.
func NewBase(name string, logger logging.Logger) *Base {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	b := &Base{
		ID:                 fmt.Sprintf("%s-%s", name, uuid.New().String()[:8]),
		Name:               name,
		Logger:             logger,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		mux:                http.NewServeMux(),
		registeredPatterns: make(map[string]bool),
	}
	b.mux.HandleFunc("/health", b.handleHealth)
	b.mux.HandleFunc("/api/capabilities", b.handleCapabilityList)
	return b
}

// RegisterCapability registers a capability and wires its HTTP endpoint.
// A capability without an endpoint gets /api/capabilities/<name>. Duplicate
// endpoints are rejected because the mux would panic on re-registration.
func (b *Base) RegisterCapability(cap Capability) error {
	if cap.Name == "" {
		return fmt.Errorf("capability name is required")
	}
	if cap.Handler == nil {
		return fmt.Errorf("capability %s has no handler", cap.Name)
	}
	if cap.Endpoint == "" {
		cap.Endpoint = "/api/capabilities/" + cap.Name
	}

	b.capMutex.Lock()
	defer b.capMutex.Unlock()

	if b.registeredPatterns[cap.Endpoint] {
		return fmt.Errorf("endpoint %s already registered", cap.Endpoint)
	}

	b.capabilities = append(b.capabilities, cap)
	b.mux.HandleFunc(cap.Endpoint, cap.Handler)
	b.registeredPatterns[cap.Endpoint] = true

	if cap.InputSummary != nil {
		schemaEndpoint := cap.Endpoint + "/schema"
		b.mux.HandleFunc(schemaEndpoint, b.handleSchemaRequest(cap))
		b.registeredPatterns[schemaEndpoint] = true
	}

	b.Logger.Info("Registered capability", map[string]interface{}{
		"name":       cap.Name,
		"endpoint":   cap.Endpoint,
		"has_schema": cap.InputSummary != nil,
	})
	return nil
}

// GetCapabilities returns a snapshot of the registered capabilities.
func (b *Base) GetCapabilities() []Capability {
	b.capMutex.RLock()
	defer b.capMutex.RUnlock()
	caps := make([]Capability, len(b.capabilities))
	copy(caps, b.capabilities)
	return caps
}

// Handler returns the tool's HTTP handler wrapped with the given middleware,
// applied outermost-first.
func (b *Base) Handler(middleware ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = b.mux
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// Start serves the tool until the context is canceled, then shuts down
// gracefully within shutdownTimeout.
func (b *Base) Start(ctx context.Context, port int, handler http.Handler) error {
	if handler == nil {
		handler = b.mux
	}
	b.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  b.ReadTimeout,
		WriteTimeout: b.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		b.Logger.Info("Tool server starting", map[string]interface{}{
			"id":   b.ID,
			"name": b.Name,
			"port": port,
		})
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("tool server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), b.ShutdownTimeout)
		defer cancel()
		if err := b.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("tool server shutdown failed: %w", err)
		}
		return ctx.Err()
	}
}

func (b *Base) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"id":     b.ID,
		"name":   b.Name,
	})
}

func (b *Base) handleCapabilityList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(b.GetCapabilities())
}

// handleSchemaRequest serves the JSON Schema generated from a capability's
// input summary so agents can validate payloads on demand.
func (b *Base) handleSchemaRequest(cap Capability) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(generateJSONSchema(cap)); err != nil {
			b.Logger.Error("Failed to encode schema", map[string]interface{}{
				"error":      err,
				"capability": cap.Name,
			})
		}
	}
}

// generateJSONSchema converts a capability's field hints into a JSON Schema
// v7 document.
func generateJSONSchema(cap Capability) map[string]interface{} {
	schema := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"type":        "object",
		"title":       cap.Name,
		"description": cap.Description,
	}
	if cap.InputSummary == nil {
		return schema
	}

	properties := make(map[string]interface{})
	required := []string{}

	for _, field := range cap.InputSummary.RequiredFields {
		properties[field.Name] = fieldHintToSchema(field)
		required = append(required, field.Name)
	}
	for _, field := range cap.InputSummary.OptionalFields {
		properties[field.Name] = fieldHintToSchema(field)
	}

	schema["properties"] = properties
	if len(required) > 0 {
		schema["required"] = required
	}
	schema["additionalProperties"] = false
	return schema
}

func fieldHintToSchema(field FieldHint) map[string]interface{} {
	prop := map[string]interface{}{
		"type": field.Type,
	}
	if field.Description != "" {
		prop["description"] = field.Description
	}
	if field.Example != "" {
		prop["examples"] = []string{field.Example}
	}
	return prop
}
