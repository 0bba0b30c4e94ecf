package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openquest/dungeonmind/internal/services"
)

func TestHealthHandler_Healthy(t *testing.T) {
	mockStorage := services.NewMockStorage()
	handler := NewHealthHandler(mockStorage, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("Expected healthy status, got %q", response.Status)
	}
	if response.Components["storage"] != "healthy" {
		t.Errorf("Expected healthy storage, got %q", response.Components["storage"])
	}
	if response.Service != "dungeonmind" {
		t.Errorf("Unexpected service name %q", response.Service)
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	mockStorage := services.NewMockStorage()
	mockStorage.SetPingError(errors.New("connection refused"))
	handler := NewHealthHandler(mockStorage, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "degraded" {
		t.Errorf("Expected degraded status, got %q", response.Status)
	}
	if response.Components["storage"] != "unhealthy" {
		t.Errorf("Expected unhealthy storage, got %q", response.Components["storage"])
	}
}
