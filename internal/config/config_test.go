package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.PoolSize != 5 || cfg.BestOf != 3 || cfg.BanBudget != 2 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("SONG_POOL_SIZE", "7")
	t.Setenv("MATCH_BEST_OF", "5")

	cfg := Load()
	if cfg.Addr != ":9999" || cfg.PoolSize != 7 || cfg.BestOf != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("BAN_BUDGET", "lots")
	if cfg := Load(); cfg.BanBudget != 2 {
		t.Fatalf("BanBudget = %d, want default 2", cfg.BanBudget)
	}
}
