package cmd

import (
	"testing"
	"time"

	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/cmd/testutil"
	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/scanner"
)

func TestSaveRunHistory_Roundtrip(t *testing.T) {
	env := testutil.NewTestEnv(t)
	prev := dataDir
	dataDir = env.DataDir
	defer func() { dataDir = prev }()

	output := &RunOutput{
		Metadata: RunMetadata{
			Scanner:      "form-field scan",
			Version:      "test",
			StartedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			CompletedAt:  time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC),
			TotalTargets: 1,
			OKCount:      1,
		},
		Results: []scanner.PageResult{{Target: "http://example.com", Status: "ok"}},
	}

	id, err := saveRunHistory(output)
	if err != nil {
		t.Fatalf("saveRunHistory: %v", err)
	}
	if id == "" {
		t.Fatal("expected a run ID")
	}

	st, err := openRunStore()
	if err != nil {
		t.Fatalf("openRunStore: %v", err)
	}
	run, err := st.Load(id)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if run.Scanner != "form-field scan" || run.TargetCount != 1 {
		t.Errorf("unexpected run: %+v", run)
	}
	if len(run.Results) != 1 || run.Results[0].Target != "http://example.com" {
		t.Errorf("unexpected results: %+v", run.Results)
	}
}
