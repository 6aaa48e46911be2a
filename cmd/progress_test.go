package cmd

import "testing"

func TestProgressPrinterCounts(t *testing.T) {
	p := newProgressPrinter(3, "form-field scan")

	p.Increment(true, 2, 0.5)
	p.Increment(true, 1, 0.3)
	p.Increment(false, 0, 1.0)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ok != 2 || p.fail != 1 {
		t.Errorf("expected 2 ok / 1 fail, got %d/%d", p.ok, p.fail)
	}
	if p.findings != 3 {
		t.Errorf("expected 3 findings, got %d", p.findings)
	}
}

func TestNewProgressPrinterClampsTotal(t *testing.T) {
	p := newProgressPrinter(0, "scan")
	if p.total != 1 {
		t.Errorf("expected total clamped to 1, got %d", p.total)
	}
}
