package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettings_GetSet(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	if _, err := settings.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := settings.Set(SettingDetectionThreshold, "0.75"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := settings.Get(SettingDetectionThreshold)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "0.75" {
		t.Errorf("Get() = %q, want %q", value, "0.75")
	}

	// Set must replace existing values.
	if err := settings.Set(SettingDetectionThreshold, "0.8"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if value, _ := settings.Get(SettingDetectionThreshold); value != "0.8" {
		t.Errorf("Get() after update = %q, want %q", value, "0.8")
	}
}

func TestSettings_TypedAccessors(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	settings.Set(SettingDetectionThreshold, "0.65")
	settings.Set(SettingRotationDegrees, "-90")
	settings.Set(SettingEnabled, "true")
	settings.Set("garbage", "not-a-number")

	if got := settings.Float(SettingDetectionThreshold, 0.7); got != 0.65 {
		t.Errorf("Float() = %f, want 0.65", got)
	}
	if got := settings.Int(SettingRotationDegrees, 0); got != -90 {
		t.Errorf("Int() = %d, want -90", got)
	}
	if got := settings.Bool(SettingEnabled, false); got != true {
		t.Errorf("Bool() = %v, want true", got)
	}

	// Missing and malformed values fall back to defaults.
	if got := settings.Float("missing", 0.7); got != 0.7 {
		t.Errorf("Float(missing) = %f, want 0.7", got)
	}
	if got := settings.Int("garbage", 42); got != 42 {
		t.Errorf("Int(garbage) = %d, want 42", got)
	}
}

func TestSettings_All(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	settings.Set("a", "1")
	settings.Set("b", "2")

	all, err := settings.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 || all["a"] != "1" || all["b"] != "2" {
		t.Errorf("All() = %v", all)
	}
}

func TestBindings_CRUD(t *testing.T) {
	s := newTestStore(t)
	bindings := s.Bindings()

	binding := &Binding{
		ID:           uuid.NewString(),
		GestureLabel: "like",
		PluginName:   "system-control",
		ActionName:   "volume-up",
		Enabled:      true,
	}

	if err := bindings.Create(binding); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := bindings.GetByID(binding.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.GestureLabel != "like" || got.ActionName != "volume-up" || !got.Enabled {
		t.Errorf("GetByID() = %+v", got)
	}

	binding.ActionName = "volume-mute"
	if err := bindings.Update(binding); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got, _ := bindings.GetByID(binding.ID); got.ActionName != "volume-mute" {
		t.Errorf("ActionName after update = %q, want %q", got.ActionName, "volume-mute")
	}

	list, err := bindings.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d bindings, want 1", len(list))
	}

	if err := bindings.Delete(binding.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := bindings.GetByID(binding.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestBindings_LabelNormalization(t *testing.T) {
	s := newTestStore(t)
	bindings := s.Bindings()

	binding := &Binding{
		ID:           uuid.NewString(),
		GestureLabel: "  Thumbs UP ",
		PluginName:   "system-control",
		ActionName:   "volume-up",
		Enabled:      true,
	}
	if err := bindings.Create(binding); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := bindings.GetByLabel("THUMBS up")
	if err != nil {
		t.Fatalf("GetByLabel() error = %v", err)
	}
	if got.GestureLabel != "thumbs up" {
		t.Errorf("GestureLabel = %q, want %q", got.GestureLabel, "thumbs up")
	}
}

func TestBindings_UpdateDeleteMissing(t *testing.T) {
	s := newTestStore(t)
	bindings := s.Bindings()

	if err := bindings.Update(&Binding{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if err := bindings.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}
