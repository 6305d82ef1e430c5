package btconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wonny/aegis-backtest/internal/engine"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
initial_capital: 50000000
top_n: 3
bottom_n: 2
rebalance_freq: M
`)

	cfg, raw, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(raw) == 0 {
		t.Error("expected raw yaml bytes")
	}

	if cfg.InitialCapital != 50_000_000 {
		t.Errorf("initial_capital = %v, want 50000000", cfg.InitialCapital)
	}
	if cfg.TopN != 3 || cfg.BottomN != 2 {
		t.Errorf("top/bottom = %d/%d, want 3/2", cfg.TopN, cfg.BottomN)
	}
	if cfg.RebalanceFreq != "M" {
		t.Errorf("rebalance_freq = %s, want M", cfg.RebalanceFreq)
	}

	// 지정하지 않은 필드는 기본값 유지
	def := engine.DefaultConfig()
	if cfg.CommissionRate != def.CommissionRate {
		t.Errorf("commission_rate = %v, want default %v", cfg.CommissionRate, def.CommissionRate)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	// 오타 필드는 조용히 무시되지 않고 즉시 실패해야 함
	path := writeYAML(t, `
initial_capital: 50000000
topn: 3
`)

	if _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoad_ValidatesConfig(t *testing.T) {
	path := writeYAML(t, `
initial_capital: -1
`)

	if _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error for negative capital")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, _, err := Load("/nonexistent/strategy.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHash_Deterministic(t *testing.T) {
	cfg := engine.DefaultConfig()

	h1, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}

	h2, _ := Hash(cfg)
	if h1 != h2 {
		t.Error("hash not deterministic")
	}

	// 파라미터가 다르면 해시도 달라야 함
	cfg.TopN++
	h3, _ := Hash(cfg)
	if h1 == h3 {
		t.Error("different configs must not collide")
	}

	t.Logf("config hash: %s", h1)
}
