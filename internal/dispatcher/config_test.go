package dispatcher

import (
	"testing"
	"time"
)

func TestMemoryConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	cfg := MemoryConfig{}.withDefaults()
	if cfg.BufferSize != 1024 {
		t.Errorf("expected default buffer 1024, got %d", cfg.BufferSize)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Workers)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.HTTPTimeout)
	}
}

func TestMemoryConfig_PreservesExplicit(t *testing.T) {
	t.Parallel()

	cfg := MemoryConfig{BufferSize: 16, Workers: 1, HTTPTimeout: time.Second}.withDefaults()
	if cfg.BufferSize != 16 || cfg.Workers != 1 || cfg.HTTPTimeout != time.Second {
		t.Errorf("expected explicit values preserved, got %+v", cfg)
	}
}
