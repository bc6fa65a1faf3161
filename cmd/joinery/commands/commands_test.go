package commands

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openjoinery/joinery/pkg/config"
	"github.com/openjoinery/joinery/pkg/quote"
)

// run executes the root command with args and returns what it printed to
// stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, verbose, jsonOutput = "", false, false

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	stdout := os.Stdout
	os.Stdout = w

	done := make(chan string)
	go func() {
		out, _ := io.ReadAll(r)
		done <- string(out)
	}()

	cmd := newRootCommand("test", "none", "today")
	cmd.SetArgs(args)
	runErr := cmd.ExecuteContext(context.Background())

	_ = w.Close()
	os.Stdout = stdout
	return <-done, runErr
}

func TestRootCommandTree(t *testing.T) {
	cmd := newRootCommand("test", "none", "today")

	want := []string{"cutlist", "eval", "generate", "init", "quote", "summary", "template", "watch"}
	var got []string
	for _, c := range cmd.Commands() {
		got = append(got, c.Name())
	}

	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing command %q in %v", name, got)
		}
	}
}

func TestEvalCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{name: "formula", args: []string{"eval", "W - 2*T", "--width", "600"}, want: "564"},
		{name: "variables", args: []string{"eval", "ceil(X / 600)", "--var", "X=1164"}, want: "2"},
		{name: "condition", args: []string{"eval", "--condition", "N >= 1 && N <= 2", "--var", "N=3"}, want: "false"},
		{name: "unresolved", args: []string{"eval", "W - SHELF"}, wantErr: "known: BACK_T, D, H, PLINTH, T, W"},
		{name: "bad value", args: []string{"eval", "X", "--var", "X=wide"}, wantErr: "invalid value for X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("eval error = %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("eval output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTemplateCheckBuiltins(t *testing.T) {
	builtin := filepath.Join("..", "..", "..", "pkg", "config", "builtin")

	out, err := run(t, "template", "check", builtin)
	if err != nil {
		t.Fatalf("template check error = %v\n%s", err, out)
	}
	for _, want := range []string{"✓ KITCHEN_BASE: 6 parts", "✓ WARDROBE_2_SPLIT: 7 parts"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "template", "check", builtin, "--code", "WARDROBE_2_SPLIT", "--overrides", `{"SPLIT_COUNT": 3}`)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(out, "This template supports 2 splits only") {
		t.Errorf("output missing validation message:\n%s", out)
	}
}

func TestQuotationWorkflow(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "joinery.yaml")

	out, err := run(t, "init", "--config", cfg)
	if err != nil {
		t.Fatalf("init error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "KITCHEN_BASE") || !strings.Contains(out, "Created 5 demo products") {
		t.Errorf("unexpected init output:\n%s", out)
	}

	out, err = run(t, "quote", "new", "--config", cfg, "--json", "--reference", "Mehta residence")
	if err != nil {
		t.Fatalf("quote new error = %v", err)
	}
	var q struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(out), &q); err != nil || q.ID == "" {
		t.Fatalf("failed to decode quotation %q: %v", out, err)
	}

	items := [][]string{
		{"--product", "Kitchen Base Cabinet", "--width", "600", "--height", "720", "--depth", "560"},
		{"--product", "Vanity", "--width", "800", "--height", "600", "--depth", "450"},
	}
	for _, item := range items {
		args := append([]string{"quote", "add", q.ID, "--config", cfg}, item...)
		if out, err := run(t, args...); err != nil {
			t.Fatalf("quote add error = %v\n%s", err, out)
		}
	}

	out, err = run(t, "generate", q.ID, "--config", cfg)
	if err != nil {
		t.Fatalf("generate error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 generated, 1 fallback, 0 failed, 7 parts") {
		t.Errorf("unexpected generate output:\n%s", out)
	}

	out, err = run(t, "summary", q.ID, "--config", cfg, "--json")
	if err != nil {
		t.Fatalf("summary error = %v", err)
	}
	var summary quote.MaterialSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.Pieces != 8 || summary.Sheets != 2 {
		t.Errorf("summary = %d pieces on %d sheets, want 8 on 2", summary.Pieces, summary.Sheets)
	}

	if _, err := run(t, "quote", "submit", q.ID, "--config", cfg); err != nil {
		t.Fatalf("quote submit error = %v", err)
	}
	_, err = run(t, "quote", "add", q.ID, "--config", cfg, "--product", "Vanity")
	if err == nil || !strings.Contains(err.Error(), "non-draft") {
		t.Errorf("expected non-draft error, got %v", err)
	}
}

func TestOpenAppStopsMetricsOnFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	dir := t.TempDir()
	cfg := config.DefaultAppConfig(dir)
	cfg.Metrics.Enabled = true
	cfg.Metrics.ListenAddress = addr
	cfg.Quote.PolicyDir = filepath.Join(dir, "missing-policies")

	path := filepath.Join(dir, "joinery.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	configPath, verbose, jsonOutput = path, false, false
	t.Cleanup(func() { configPath = "" })

	if _, err := openApp(context.Background()); err == nil {
		t.Fatal("expected openApp to fail on a missing policy directory")
	}

	// The metrics listener shuts down asynchronously once openApp gives up.
	deadline := time.Now().Add(5 * time.Second)
	for {
		l, err := net.Listen("tcp", addr)
		if err == nil {
			_ = l.Close()
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics server still holds %s after openApp failed: %v", addr, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
