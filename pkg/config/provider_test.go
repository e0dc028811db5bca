package config

import (
	"context"
	"testing"
)

// MockStateStore implements store.StateStore for testing.
type MockStateStore struct {
	data map[string]string
}

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{data: make(map[string]string)}
}

func (m *MockStateStore) GetState(ctx context.Context, key string) (string, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *MockStateStore) SetState(ctx context.Context, key, val string) error {
	m.data[key] = val
	return nil
}

func (m *MockStateStore) DeleteState(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestUnifiedProvider(t *testing.T) {
	ctx := context.Background()
	baseCfg := DefaultConfig()
	baseCfg.Locomotion.DefaultMode = 1
	baseCfg.Locomotion.TurnDefault = 0
	baseCfg.Audio.Volume = 60

	store := NewMockStateStore()
	p := NewProvider(baseCfg, store)

	t.Run("Defaults_And_Fallbacks", func(t *testing.T) {
		if p.LocomotionMode(ctx) != 1 {
			t.Errorf("expected config mode 1, got %d", p.LocomotionMode(ctx))
		}
		if p.TurnStyle(ctx) != 0 {
			t.Errorf("expected turn 0, got %d", p.TurnStyle(ctx))
		}
		if p.Volume(ctx) != 60 {
			t.Errorf("expected volume 60, got %d", p.Volume(ctx))
		}
		if p.AppConfig() != baseCfg {
			t.Error("AppConfig should return the base config")
		}
	})

	t.Run("Store_Overrides", func(t *testing.T) {
		_ = store.SetState(ctx, KeyLocomotionMode, "0")
		_ = store.SetState(ctx, KeyTurn, "1")
		_ = store.SetState(ctx, KeyVolume, "25")

		if p.LocomotionMode(ctx) != 0 {
			t.Errorf("expected stored mode 0, got %d", p.LocomotionMode(ctx))
		}
		if p.TurnStyle(ctx) != 1 {
			t.Errorf("expected stored turn 1, got %d", p.TurnStyle(ctx))
		}
		if v, ok := p.Value(ctx, KeyVolume); !ok || v != 25 {
			t.Errorf("expected stored volume 25, got %d (%v)", v, ok)
		}
	})

	t.Run("Clamping_And_Garbage", func(t *testing.T) {
		_ = store.SetState(ctx, KeyLocomotionMode, "7")
		_ = store.SetState(ctx, KeyVolume, "-3")
		_ = store.SetState(ctx, KeyTurn, "snap")

		if p.LocomotionMode(ctx) != 1 {
			t.Errorf("expected clamped mode 1, got %d", p.LocomotionMode(ctx))
		}
		if p.Volume(ctx) != 0 {
			t.Errorf("expected clamped volume 0, got %d", p.Volume(ctx))
		}
		if p.TurnStyle(ctx) != 0 {
			t.Errorf("expected fallback turn 0, got %d", p.TurnStyle(ctx))
		}
	})

	t.Run("Unknown_Key", func(t *testing.T) {
		if _, ok := p.Value(ctx, "speed"); ok {
			t.Error("unknown key should not resolve")
		}
		if IsKnownKey("speed") || !IsKnownKey(KeyTurn) {
			t.Error("IsKnownKey mismatch")
		}
	})
}
