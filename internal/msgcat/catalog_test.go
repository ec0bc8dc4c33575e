package msgcat

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedNotices(t *testing.T) {
	c, err := New("")
	if err != nil { t.Fatalf("New: %v", err) }
	for _, kind := range []string{"remote_failure", "move_in_flight", "no_active_game", "engine_failure"} {
		out, err := c.Render("notice."+kind, map[string]any{"GameID": "7"})
		if err != nil { t.Fatalf("render %s: %v", kind, err) }
		if strings.TrimSpace(out) == "" { t.Fatalf("empty notice for %s", kind) }
	}
	out, _ := c.Render("notice.remote_failure", map[string]any{"GameID": "7"})
	if !strings.Contains(out, "game 7") { t.Fatalf("out=%q", out) }
}

func TestMissingKeyAndData(t *testing.T) {
	c, err := New("")
	if err != nil { t.Fatalf("New: %v", err) }
	if _, err := c.Render("notice.nope", nil); !errors.Is(err, ErrTemplateNotFound) { t.Fatalf("err=%v", err) }
	if _, err := c.Render("notice.remote_failure", map[string]any{}); err == nil { t.Fatalf("expected missing data error") }
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("notice:\n  move_in_flight: \"busy\"\n"), 0o644); err != nil { t.Fatal(err) }
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("notice: {}"), 0o644); err != nil { t.Fatal(err) }

	c, err := New(dir)
	if err != nil { t.Fatalf("New: %v", err) }
	out, err := c.Render("notice.move_in_flight", nil)
	if err != nil || out != "busy" { t.Fatalf("out=%q err=%v", out, err) }
}

func TestDuplicateOverrideKeys(t *testing.T) {
	dir := t.TempDir()
	body := []byte("notice:\n  no_active_game: \"x\"\n")
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644)
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate") { t.Fatalf("err=%v", err) }
}

func TestNonStringLeafRejected(t *testing.T) {
	if _, err := parseYAMLToFlat([]byte("notice:\n  count: 3\n")); err == nil { t.Fatalf("expected error") }
}

func TestKeysSorted(t *testing.T) {
	c, _ := New("")
	keys := c.Keys()
	if len(keys) < 5 || keys[0] != "bridge.bad_frame" { t.Fatalf("keys=%v", keys) }
}
