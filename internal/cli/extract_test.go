package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

func TestExtractAllKeepsOrderAndLimit(t *testing.T) {
	paths := []string{"a.png", "b.png", "c.png", "d.png", "e.png"}
	var running, peak atomic.Int32

	results, err := extractAll(context.Background(), paths, 2, func(ctx context.Context, p string) extractResult {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return extractResult{File: p}
	})
	if err != nil {
		t.Fatalf("extractAll: %v", err)
	}

	var got []string
	for _, r := range results {
		got = append(got, r.File)
	}
	if diff := cmp.Diff(paths, got); diff != "" {
		t.Errorf("result order mismatch (-want +got):\n%s", diff)
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestExtractAllPerFileErrors(t *testing.T) {
	boom := errors.New("boom")
	results, err := extractAll(context.Background(), []string{"ok.png", "bad.png"}, 4, func(ctx context.Context, p string) extractResult {
		r := extractResult{File: p}
		if p == "bad.png" {
			r.setErr(boom)
		}
		return r
	})
	if err != nil {
		t.Fatalf("per-file errors should not fail the run: %v", err)
	}
	if results[0].err != nil || !errors.Is(results[1].err, boom) {
		t.Errorf("unexpected errors: %v, %v", results[0].err, results[1].err)
	}
	if results[1].Error == "" {
		t.Error("failed result should carry a message")
	}
}

func TestExtractAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractAll(ctx, []string{"a.png"}, 1, func(ctx context.Context, p string) extractResult {
		return extractResult{File: p}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("extractAll() error = %v, want context.Canceled", err)
	}
}

func sampleResults() []extractResult {
	return []extractResult{
		{File: "fox.png", Positive: []string{"a red fox"}, Negative: []string{"blurry"}, nodes: 3, links: 2},
		{File: "cat.png", Positive: []string{}, Negative: []string{}},
	}
}

func TestWriteExtractResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeExtractResults(&buf, outputJSON, sampleResults()); err != nil {
		t.Fatal(err)
	}

	var got []extractResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON list: %v\n%s", err, buf.String())
	}
	want := sampleResults()
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(extractResult{})); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteExtractResultsSingleIsObject(t *testing.T) {
	var buf bytes.Buffer
	if err := writeExtractResults(&buf, outputJSON, sampleResults()[:1]); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("single result should be an object: %s", buf.String())
	}
}

func TestWriteExtractResultsYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeExtractResults(&buf, outputYAML, sampleResults()); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if len(got) != 2 || got[0]["file"] != "fox.png" {
		t.Errorf("unexpected YAML: %v", got)
	}
	if _, ok := got[0]["error"]; ok {
		t.Error("error key should be omitted on success")
	}
}

func TestWriteExtractResultsText(t *testing.T) {
	results := sampleResults()
	results[1].setErr(errors.New("no workflow"))

	var buf bytes.Buffer
	if err := writeExtractResults(&buf, outputText, results); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"fox.png", "Positive", "a red fox", "Negative", "blurry", "3 nodes", "cat.png", "no workflow"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}
