package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/marathon?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
	for _, k := range []string{"SERVER_PORT", "RULESETS_DIR", "CACHE_LIVE_TTL", "CACHE_FINAL_TTL", "CACHE_STALE_WINDOW",
		"CORS_ALLOWED_ORIGINS", "R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.RuleSetsDir != "./rulesets" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheLiveTTL != 15*time.Second || cfg.CacheFinalTTL != 45*time.Second || cfg.CacheStaleWindow != 60*time.Second {
		t.Errorf("unexpected cache defaults: %v %v %v", cfg.CacheLiveTTL, cfg.CacheFinalTTL, cfg.CacheStaleWindow)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORS origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ArchiveEnabled() {
		t.Errorf("archive must be disabled without R2 settings")
	}
}

func TestLoadCacheTTL(t *testing.T) {
	cases := []struct {
		live, final string
		ok          bool
	}{
		{"20s", "60", true},
		{"10", "30s", true},
		{"5s", "45s", false},
		{"15s", "2m", false},
		{"soon", "45s", false},
	}
	for _, tc := range cases {
		t.Run(tc.live+"/"+tc.final, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("CACHE_LIVE_TTL", tc.live)
			t.Setenv("CACHE_FINAL_TTL", tc.final)
			_, err := Load()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")
	if _, err := Load(); err == nil {
		t.Errorf("expected error without JWT_SECRET_KEY")
	}

	setBaseEnv(t)
	t.Setenv("SERVER_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for out of range port")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example, ,https://b.example ")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("splitList = %v", got)
	}
}
