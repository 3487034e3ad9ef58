package health

import (
	"context"
	"sync/atomic"

	logger "github.com/sirupsen/logrus"

	"signalengine/src/model"
	"signalengine/src/pipeline"
)

// SettingsStore persists operator toggles across restarts.
type SettingsStore interface {
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// PauseSwitch is the manual ingestion gate. The flag is persisted so a
// paused deployment stays paused through a restart; the in-memory copy
// keeps the hot path off the database.
type PauseSwitch struct {
	paused   atomic.Bool
	settings SettingsStore

	onToggle func(paused bool)
}

// NewPauseSwitch loads the persisted flag. A read failure logs and starts
// unpaused rather than blocking startup.
func NewPauseSwitch(ctx context.Context, settings SettingsStore) *PauseSwitch {
	s := &PauseSwitch{settings: settings}

	paused, err := settings.GetBool(ctx, model.SettingProcessingPaused)
	if err != nil {
		logger.WithError(err).Error("failed to load processing pause flag, starting unpaused")
		return s
	}
	s.paused.Store(paused)
	return s
}

func (s *PauseSwitch) OnToggle(fn func(paused bool)) {
	s.onToggle = fn
}

func (s *PauseSwitch) Pause(ctx context.Context) error {
	return s.set(ctx, true)
}

func (s *PauseSwitch) Resume(ctx context.Context) error {
	return s.set(ctx, false)
}

func (s *PauseSwitch) IsPaused() bool {
	return s.paused.Load()
}

// Allow implements the pipeline gate.
func (s *PauseSwitch) Allow() error {
	if s.paused.Load() {
		return pipeline.ErrProcessingPaused
	}
	return nil
}

func (s *PauseSwitch) set(ctx context.Context, paused bool) error {
	if err := s.settings.SetBool(ctx, model.SettingProcessingPaused, paused); err != nil {
		return err
	}
	s.paused.Store(paused)

	logger.WithField("paused", paused).Warn("processing pause flag changed")
	if s.onToggle != nil {
		s.onToggle(paused)
	}
	return nil
}
