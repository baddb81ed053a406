package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marmos91/sharegate/pkg/registry"
	"github.com/marmos91/sharegate/pkg/remotefs/remotefstest"
)

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if data["service"] != "sharegate" {
		t.Errorf("Expected service 'sharegate', got '%s'", data["service"])
	}
}

func TestReadiness_NoRegistry_Returns503(t *testing.T) {
	handler := NewHealthHandler(nil)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got '%s'", resp.Status)
	}

	if resp.Error != "registry not initialized" {
		t.Errorf("Expected error 'registry not initialized', got '%s'", resp.Error)
	}
}

func TestReadiness_NoBackends_Returns503(t *testing.T) {
	handler := NewHealthHandler(registry.NewRegistry())
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Error != "no backends registered" {
		t.Errorf("Expected error 'no backends registered', got '%s'", resp.Error)
	}
}

func TestReadiness_WithBackends_ReturnsOK(t *testing.T) {
	reg := registry.NewRegistry()
	if err := reg.RegisterBackend(remotefstest.NewBackend("smb")); err != nil {
		t.Fatalf("Failed to register backend: %v", err)
	}
	if err := reg.RegisterBackend(remotefstest.NewBackend("local")); err != nil {
		t.Fatalf("Failed to register backend: %v", err)
	}
	if err := reg.AddBookmark("Media", `\\fileserver\media`); err != nil {
		t.Fatalf("Failed to add bookmark: %v", err)
	}

	handler := NewHealthHandler(reg)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	backends, ok := data["backends"].([]interface{})
	if !ok || len(backends) != 2 || backends[0] != "local" || backends[1] != "smb" {
		t.Errorf("Expected backends [local smb], got %v", data["backends"])
	}

	if data["bookmarks"].(float64) != 1 {
		t.Errorf("Expected 1 bookmark, got %v", data["bookmarks"])
	}
}
