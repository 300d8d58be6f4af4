package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettingsHandler_GetEmpty(t *testing.T) {
	handler := NewSettingsHandler(newTestStore(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var settings map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&settings); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(settings) != 0 {
		t.Errorf("settings = %v, want empty", settings)
	}
}

func TestSettingsHandler_PutAndGet(t *testing.T) {
	handler := NewSettingsHandler(newTestStore(t))

	body, _ := json.Marshal(map[string]string{
		store.SettingDetectionThreshold: "0.8",
		store.SettingRotationDegrees:    "-90",
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	var settings map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&settings); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if settings[store.SettingDetectionThreshold] != "0.8" {
		t.Errorf("detection_threshold = %q, want %q", settings[store.SettingDetectionThreshold], "0.8")
	}
	if settings[store.SettingRotationDegrees] != "-90" {
		t.Errorf("rotation_degrees = %q, want %q", settings[store.SettingRotationDegrees], "-90")
	}
}

func TestSettingsHandler_InvalidBody(t *testing.T) {
	handler := NewSettingsHandler(newTestStore(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader([]byte("not json"))))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSettingsHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSettingsHandler(newTestStore(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/settings", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func createBinding(t *testing.T, handler *BindingsHandler, payload bindingPayload) bindingPayload {
	t.Helper()

	body, _ := json.Marshal(payload)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bindings", bytes.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created bindingPayload
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return created
}

func TestBindingsHandler_CreateAndGet(t *testing.T) {
	handler := NewBindingsHandler(newTestStore(t))

	created := createBinding(t, handler, bindingPayload{
		GestureLabel: "Thumbs Up",
		PluginName:   "system-control",
		ActionName:   "volume_up",
		Enabled:      true,
	})

	if created.ID == "" {
		t.Fatal("created binding has no ID")
	}
	if created.GestureLabel != "thumbs up" {
		t.Errorf("gesture label = %q, want normalized %q", created.GestureLabel, "thumbs up")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bindings/"+created.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got bindingPayload
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.PluginName != "system-control" || got.ActionName != "volume_up" {
		t.Errorf("binding = %+v, want system-control/volume_up", got)
	}
}

func TestBindingsHandler_List(t *testing.T) {
	handler := NewBindingsHandler(newTestStore(t))

	createBinding(t, handler, bindingPayload{
		GestureLabel: "like", PluginName: "p", ActionName: "a", Enabled: true,
	})
	createBinding(t, handler, bindingPayload{
		GestureLabel: "dislike", PluginName: "p", ActionName: "b", Enabled: true,
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bindings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", rec.Code, http.StatusOK)
	}

	var list []bindingPayload
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len(list) = %d, want 2", len(list))
	}
}

func TestBindingsHandler_CreateValidation(t *testing.T) {
	handler := NewBindingsHandler(newTestStore(t))

	cases := []struct {
		name    string
		payload bindingPayload
	}{
		{"missing label", bindingPayload{PluginName: "p", ActionName: "a"}},
		{"blank label", bindingPayload{GestureLabel: "   ", PluginName: "p", ActionName: "a"}},
		{"missing plugin", bindingPayload{GestureLabel: "like", ActionName: "a"}},
		{"missing action", bindingPayload{GestureLabel: "like", PluginName: "p"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.payload)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bindings", bytes.NewReader(body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestBindingsHandler_Update(t *testing.T) {
	handler := NewBindingsHandler(newTestStore(t))

	created := createBinding(t, handler, bindingPayload{
		GestureLabel: "like", PluginName: "p", ActionName: "a", Enabled: true,
	})

	body, _ := json.Marshal(bindingPayload{
		GestureLabel: "like", PluginName: "p", ActionName: "c", Enabled: false,
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/bindings/"+created.ID, bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bindings/"+created.ID, nil))

	var got bindingPayload
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ActionName != "c" || got.Enabled {
		t.Errorf("binding after update = %+v, want action c, disabled", got)
	}
}

func TestBindingsHandler_Delete(t *testing.T) {
	handler := NewBindingsHandler(newTestStore(t))

	created := createBinding(t, handler, bindingPayload{
		GestureLabel: "like", PluginName: "p", ActionName: "a", Enabled: true,
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/bindings/"+created.ID, nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bindings/"+created.ID, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestBindingsHandler_NotFound(t *testing.T) {
	handler := NewBindingsHandler(newTestStore(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/bindings/no-such-id", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("DELETE status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
