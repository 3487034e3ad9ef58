package health

import (
	"context"
	"errors"
	"testing"

	"signalengine/src/model"
	"signalengine/src/pipeline"
)

func TestPauseSwitchLoadsPersistedFlag(t *testing.T) {
	settings := &fakeSettings{values: map[string]bool{model.SettingProcessingPaused: true}}

	pause := NewPauseSwitch(context.Background(), settings)
	if !pause.IsPaused() {
		t.Fatalf("expected persisted paused flag to be loaded")
	}
	if err := pause.Allow(); !errors.Is(err, pipeline.ErrProcessingPaused) {
		t.Fatalf("expected ErrProcessingPaused from Allow, got %v", err)
	}
}

func TestPauseSwitchStartsUnpausedOnReadError(t *testing.T) {
	settings := &fakeSettings{err: errors.New("db down")}

	pause := NewPauseSwitch(context.Background(), settings)
	if pause.IsPaused() {
		t.Fatalf("expected unpaused start when the flag cannot be read")
	}
}

func TestPauseSwitchPersistsToggle(t *testing.T) {
	settings := &fakeSettings{}
	pause := NewPauseSwitch(context.Background(), settings)

	var toggles []bool
	pause.OnToggle(func(paused bool) { toggles = append(toggles, paused) })

	if err := pause.Pause(context.Background()); err != nil {
		t.Fatalf("unexpected pause error: %v", err)
	}
	if !settings.values[model.SettingProcessingPaused] {
		t.Fatalf("expected paused flag persisted")
	}
	if err := pause.Allow(); !errors.Is(err, pipeline.ErrProcessingPaused) {
		t.Fatalf("expected Allow to fail while paused")
	}

	if err := pause.Resume(context.Background()); err != nil {
		t.Fatalf("unexpected resume error: %v", err)
	}
	if settings.values[model.SettingProcessingPaused] {
		t.Fatalf("expected paused flag cleared")
	}
	if err := pause.Allow(); err != nil {
		t.Fatalf("expected Allow to pass after resume, got %v", err)
	}

	if len(toggles) != 2 || !toggles[0] || toggles[1] {
		t.Fatalf("unexpected toggle callbacks: %v", toggles)
	}
}

func TestPauseSwitchKeepsStateOnPersistError(t *testing.T) {
	settings := &fakeSettings{}
	pause := NewPauseSwitch(context.Background(), settings)

	settings.err = errors.New("db down")
	if err := pause.Pause(context.Background()); err == nil {
		t.Fatalf("expected persist error to surface")
	}
	if pause.IsPaused() {
		t.Fatalf("in-memory flag must not flip when persistence fails")
	}
}
