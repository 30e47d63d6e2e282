package corun

import "go.uber.org/zap"

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger a driver and its nested runs log to.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithName labels every log entry of the driver's runs.
func WithName(name string) Option {
	return func(d *Driver) {
		d.name = name
	}
}
