package botconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, cfg ProcessConfig) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, ProcessConfig{
		Blocked:        []int64{1, 2},
		SurvivAppSID:   "sid",
		FeedbackUserID: 99,
		MarketEnabled:  true,
	})

	guard, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := guard.Snapshot()
	if !cfg.IsBlocked(1) || !cfg.IsBlocked(2) || cfg.IsBlocked(3) {
		t.Errorf("unexpected blocked set: %v", cfg.Blocked)
	}
	if cfg.SurvivAppSID != "sid" || cfg.FeedbackUserID != 99 || !cfg.MarketEnabled {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestIsBlockedOnSnapshotValue(t *testing.T) {
	path := writeConfig(t, ProcessConfig{Blocked: []int64{7}})

	guard, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// The dispatch path chains the check straight off the snapshot,
	// so it has to work on the returned value itself
	if !guard.Snapshot().IsBlocked(7) {
		t.Error("blocked user not reported as blocked")
	}
	if guard.Snapshot().IsBlocked(8) {
		t.Error("unblocked user reported as blocked")
	}
}

func TestBlockUserPersists(t *testing.T) {
	path := writeConfig(t, ProcessConfig{})

	guard, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := guard.BlockUser(7); err != nil {
		t.Fatalf("block: %v", err)
	}
	// Blocking twice must not duplicate the entry
	if err := guard.BlockUser(7); err != nil {
		t.Fatalf("block again: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	cfg := reloaded.Snapshot()
	if len(cfg.Blocked) != 1 || cfg.Blocked[0] != 7 {
		t.Errorf("blocked = %v, want [7]", cfg.Blocked)
	}
}

func TestUpdateKeepsExternalEdits(t *testing.T) {
	path := writeConfig(t, ProcessConfig{})

	guard, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Edit the backing file behind the guard's back, then mutate
	// through the guard; the edit must survive
	external := ProcessConfig{JoinLink: "https://discord.gg/example"}
	raw, _ := json.Marshal(external)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("external write: %v", err)
	}

	if err := guard.SetAppSID("fresh"); err != nil {
		t.Fatalf("set app sid: %v", err)
	}
	cfg := guard.Snapshot()
	if cfg.JoinLink != "https://discord.gg/example" {
		t.Errorf("external edit lost: %+v", cfg)
	}
	if cfg.SurvivAppSID != "fresh" {
		t.Errorf("mutation lost: %+v", cfg)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	path := writeConfig(t, ProcessConfig{Blocked: []int64{1}})

	guard, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := guard.Snapshot()
	cfg.Blocked[0] = 999

	if guard.Snapshot().Blocked[0] != 1 {
		t.Error("snapshot shares the blocked slice with the guard")
	}
}
