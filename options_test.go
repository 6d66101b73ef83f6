package pcd

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name     string
		options  []Option
		validate func(t *testing.T, opts *deviceOptions)
	}{
		{
			name:    "defaults",
			options: nil,
			validate: func(t *testing.T, opts *deviceOptions) {
				assert.Equal(t, DefaultName, opts.name)
				assert.Equal(t, DefaultCapacity, opts.capacity)
				assert.False(t, opts.locking)
				assert.Nil(t, opts.logger)
			},
		},
		{
			name:    "custom values",
			options: []Option{WithName("ram0"), WithCapacity(4096), WithLocking(true)},
			validate: func(t *testing.T, opts *deviceOptions) {
				assert.Equal(t, "ram0", opts.name)
				assert.Equal(t, 4096, opts.capacity)
				assert.True(t, opts.locking)
			},
		},
		{
			name:    "empty name and non-positive capacity are ignored",
			options: []Option{WithName(""), WithCapacity(0), WithCapacity(-5)},
			validate: func(t *testing.T, opts *deviceOptions) {
				assert.Equal(t, DefaultName, opts.name)
				assert.Equal(t, DefaultCapacity, opts.capacity)
			},
		},
		{
			name:    "with logger",
			options: []Option{WithLogger(slog.New(slog.NewTextHandler(nil, nil)))},
			validate: func(t *testing.T, opts *deviceOptions) {
				assert.NotNil(t, opts.logger)
				assert.True(t, opts.logger.Enabled(context.TODO(), slog.LevelInfo))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			applyOptions(opts, tt.options)
			tt.validate(t, opts)
		})
	}
}

func TestNewAppliesOptions(t *testing.T) {
	dev := New(WithName("ram1"), WithCapacity(64))
	assert.Equal(t, "ram1", dev.Name())
	assert.Equal(t, int64(64), dev.Capacity())
	assert.Equal(t, 0, dev.Sessions())
}
