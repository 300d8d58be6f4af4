package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/store"
)

// BindingsHandler handles HTTP requests for gesture-action bindings.
type BindingsHandler struct {
	store *store.Store
}

// NewBindingsHandler creates a new BindingsHandler with the given store.
func NewBindingsHandler(s *store.Store) *BindingsHandler {
	return &BindingsHandler{store: s}
}

// bindingPayload is the JSON wire shape of a binding.
type bindingPayload struct {
	ID           string `json:"id,omitempty"`
	GestureLabel string `json:"gestureLabel"`
	PluginName   string `json:"pluginName"`
	ActionName   string `json:"actionName"`
	Enabled      bool   `json:"enabled"`
}

func toPayload(b *store.Binding) bindingPayload {
	return bindingPayload{
		ID:           b.ID,
		GestureLabel: b.GestureLabel,
		PluginName:   b.PluginName,
		ActionName:   b.ActionName,
		Enabled:      b.Enabled,
	}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// the collection (/api/bindings) or item (/api/bindings/{id}) methods.
func (h *BindingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodPut:
		h.update(w, r, path)
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BindingsHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		http.Error(w, "Failed to list bindings", http.StatusInternalServerError)
		return
	}

	payloads := make([]bindingPayload, 0, len(bindings))
	for _, b := range bindings {
		payloads = append(payloads, toPayload(b))
	}

	writeJSON(w, http.StatusOK, payloads)
}

func (h *BindingsHandler) create(w http.ResponseWriter, r *http.Request) {
	var payload bindingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(payload.GestureLabel) == "" {
		http.Error(w, "gestureLabel is required", http.StatusBadRequest)
		return
	}
	if payload.PluginName == "" || payload.ActionName == "" {
		http.Error(w, "pluginName and actionName are required", http.StatusBadRequest)
		return
	}

	binding := &store.Binding{
		ID:           uuid.NewString(),
		GestureLabel: payload.GestureLabel,
		PluginName:   payload.PluginName,
		ActionName:   payload.ActionName,
		Enabled:      payload.Enabled,
	}

	if err := h.store.Bindings().Create(binding); err != nil {
		http.Error(w, "Failed to create binding", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toPayload(binding))
}

func (h *BindingsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	binding, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Binding not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load binding", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toPayload(binding))
}

func (h *BindingsHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var payload bindingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	binding := &store.Binding{
		ID:           id,
		GestureLabel: payload.GestureLabel,
		PluginName:   payload.PluginName,
		ActionName:   payload.ActionName,
		Enabled:      payload.Enabled,
	}

	if err := h.store.Bindings().Update(binding); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Binding not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update binding", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toPayload(binding))
}

func (h *BindingsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Bindings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Binding not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete binding", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
