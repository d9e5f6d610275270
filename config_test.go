package postsocket

import (
	"testing"
	"time"
)

func TestDefaultRuntimeConfigMatchesEnvTagDefaults(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if cfg.RaceStagger != 250*time.Millisecond {
		t.Errorf("RaceStagger = %v, want 250ms", cfg.RaceStagger)
	}
	if cfg.DefaultConnTimeout != 30*time.Second {
		t.Errorf("DefaultConnTimeout = %v, want 30s", cfg.DefaultConnTimeout)
	}
	if cfg.RendezvousGracePeriod != 50*time.Millisecond {
		t.Errorf("RendezvousGracePeriod = %v, want 50ms", cfg.RendezvousGracePeriod)
	}
	if cfg.MaxFrameSize != 1048576 {
		t.Errorf("MaxFrameSize = %d, want 1048576", cfg.MaxFrameSize)
	}
	if cfg.ConsumeTimeout != 250*time.Millisecond {
		t.Errorf("ConsumeTimeout = %v, want 250ms", cfg.ConsumeTimeout)
	}
}

func TestUnmarshalEnvOverridesFromEnviron(t *testing.T) {
	var cfg RuntimeConfig
	err := cfg.UnmarshalEnv([]string{
		"POSTSOCKET_RACE_STAGGER=10ms",
		"POSTSOCKET_MAX_FRAME_SIZE=2048",
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RaceStagger != 10*time.Millisecond {
		t.Errorf("RaceStagger = %v, want 10ms", cfg.RaceStagger)
	}
	if cfg.MaxFrameSize != 2048 {
		t.Errorf("MaxFrameSize = %d, want 2048", cfg.MaxFrameSize)
	}
	// unspecified fields still take their defaults in non-incremental mode
	if cfg.DefaultConnTimeout != 30*time.Second {
		t.Errorf("DefaultConnTimeout = %v, want default 30s", cfg.DefaultConnTimeout)
	}
}

func TestUnmarshalEnvIncrementalLeavesUnsetFieldsAlone(t *testing.T) {
	cfg := RuntimeConfig{MaxFrameSize: 99}
	err := cfg.UnmarshalEnv([]string{"POSTSOCKET_RACE_STAGGER=10ms"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxFrameSize != 99 {
		t.Errorf("expected MaxFrameSize to be left untouched in incremental mode, got %d", cfg.MaxFrameSize)
	}
	if cfg.RaceStagger != 10*time.Millisecond {
		t.Errorf("RaceStagger = %v, want 10ms", cfg.RaceStagger)
	}
}

func TestUnmarshalEnvRejectsBadDuration(t *testing.T) {
	var cfg RuntimeConfig
	err := cfg.UnmarshalEnv([]string{"POSTSOCKET_RACE_STAGGER=not-a-duration"}, false)
	if err == nil {
		t.Fatal("expected an error for an unparseable duration")
	}
}
