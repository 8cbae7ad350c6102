package garden

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadBalanceOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	content := "grid_width: 8\nauto_harvest_delay: 2h\ncare_xp:\n  water: 7\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := LoadBalance(path)
	if err != nil {
		t.Fatalf("LoadBalance: %v", err)
	}
	if b.GridWidth != 8 || b.GridHeight != 5 {
		t.Fatalf("grid: got %dx%d", b.GridWidth, b.GridHeight)
	}
	if b.AutoHarvestDelay != 2*time.Hour {
		t.Fatalf("delay: got %s", b.AutoHarvestDelay)
	}
	if b.CareXP.Water != 7 || b.CareXP.Fertilize != 10 {
		t.Fatalf("care xp: got %+v", b.CareXP)
	}
}

func TestLoadBalanceRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	if err := os.WriteFile(path, []byte("max_hours_per_log: 30\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadBalance(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDefaultBalanceGrid(t *testing.T) {
	b := DefaultBalance()
	if err := b.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if !b.InGrid(5, 4) || b.InGrid(6, 0) || b.InGrid(0, -1) {
		t.Fatalf("InGrid bounds wrong for 6x5")
	}
}

func TestParseCategoryLegacySpellings(t *testing.T) {
	for _, raw := range []string{"Self-Care", "self_care", "selfcare", " SELF CARE "} {
		if c, ok := ParseCategory(raw); !ok || c != CategorySelfcare {
			t.Fatalf("ParseCategory(%q) = %q, %v", raw, c, ok)
		}
	}
	if _, ok := ParseCategory("gardening"); ok {
		t.Fatalf("unknown category accepted")
	}
}

func TestRecountSteps(t *testing.T) {
	p := &Plant{TaskSteps: []TaskStep{{IsCompleted: true}, {}, {IsCompleted: true, IsPartial: true}}}
	p.RecountSteps()
	if p.CompletedSteps != 2 || p.TotalSteps != 3 {
		t.Fatalf("recount: %d/%d", p.CompletedSteps, p.TotalSteps)
	}
}
