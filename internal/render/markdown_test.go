package render

import (
	"strings"
	"testing"
)

func TestRenderBasicMarkdown(t *testing.T) {
	r := NewMarkdownRenderer()

	out := r.Render("# Issue 1\n\nHello *there*.")
	if !strings.Contains(out, "<h1>Issue 1</h1>") {
		t.Fatalf("expected an h1, got %q", out)
	}
	if !strings.Contains(out, "<em>there</em>") {
		t.Fatalf("expected emphasis, got %q", out)
	}
}

func TestRenderGFMTable(t *testing.T) {
	r := NewMarkdownRenderer()

	out := r.Render("| a | b |\n|---|---|\n| 1 | 2 |")
	if !strings.Contains(out, "<table>") {
		t.Fatalf("expected a table, got %q", out)
	}
}

func TestRenderHardWraps(t *testing.T) {
	r := NewMarkdownRenderer()

	out := r.Render("line one\nline two")
	if !strings.Contains(out, "<br") {
		t.Fatalf("expected a line break, got %q", out)
	}
}
