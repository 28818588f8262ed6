package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	keys := []string{"output_path", "log.level", "log.format", "compress.quality", "compress.workers"}

	tests := []struct {
		input string
		want  string
	}{
		{"output_pth", "output_path"},
		{"outputpath", "output_path"},
		{"compress.qualty", "compress.quality"},
		{"log.levle", "log.level"},
		{"zzz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, suggest(tt.input, keys))
		})
	}
}

func TestSuggest_NoCandidates(t *testing.T) {
	assert.Empty(t, suggest("output_path", nil))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}
