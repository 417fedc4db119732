package repository

import (
	"time"

	"github.com/okian/hackreg/internal/domain/model"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	defaults model.Settings
	now      func() time.Time
}

func defaultOptions() options {
	return options{
		defaults: model.Settings{TeamsEnabled: true, QREnabled: true},
		now:      time.Now,
	}
}

// WithDefaultSettings sets the settings returned before any are saved.
func WithDefaultSettings(s model.Settings) Option {
	return func(o *options) {
		o.defaults = s
	}
}

// WithClock overrides the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
