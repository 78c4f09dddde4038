package template_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentmail/internal/template"
)

func newStore(t *testing.T) (*template.Store, string) {
	t.Helper()
	dir := t.TempDir()
	return template.NewStore(dir, "en", zap.NewNop()), dir
}

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRender_NamedTemplate(t *testing.T) {
	store, dir := newStore(t)
	writeTemplate(t, dir, "greeting.html", `<p>Hello {{.name}}</p>`)

	body := store.Render("greeting", map[string]any{"name": "Alice"})

	require.Contains(t, body, "Hello Alice")
}

func TestRender_UnknownTemplateFallsBackToDefault(t *testing.T) {
	store, _ := newStore(t)

	// Any unknown name must yield the default layout around "content".
	for _, name := range []string{"no-such-template", "also-missing", "nested/none"} {
		body := store.Render(name, map[string]any{"content": "X"})
		require.Contains(t, body, "X", "template %q", name)
		require.Contains(t, body, "<html>")
	}
}

func TestRender_EmptyNameUsesDefaultLayout(t *testing.T) {
	store, _ := newStore(t)

	body := store.Render("", map[string]any{"content": "<p>Hello</p>"})

	// Caller-supplied body HTML passes through unescaped.
	require.Contains(t, body, "<p>Hello</p>")
}

func TestRender_BrokenTemplateFallsBack(t *testing.T) {
	store, dir := newStore(t)
	writeTemplate(t, dir, "broken.html", `{{.name`)

	body := store.Render("broken", map[string]any{"content": "fallback body"})

	require.Contains(t, body, "fallback body")
}

func TestRender_NilContext(t *testing.T) {
	store, _ := newStore(t)

	require.NotPanics(t, func() {
		store.Render("missing", nil)
	})
}

func TestRender_CompilesOncePerName(t *testing.T) {
	store, dir := newStore(t)
	writeTemplate(t, dir, "cached.html", `first version`)

	require.Contains(t, store.Render("cached", nil), "first version")

	// The compiled template is cached for process lifetime; a file change
	// must not show up.
	writeTemplate(t, dir, "cached.html", `second version`)
	require.Contains(t, store.Render("cached", nil), "first version")
}

func TestHelpers_DateFormatting(t *testing.T) {
	store, dir := newStore(t)
	writeTemplate(t, dir, "dates.html",
		`{{formatDate .when}}|{{formatLongDate .when}}`)

	when := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	body := store.Render("dates", map[string]any{"when": when})

	require.Contains(t, body, "05-03-2026")
	require.Contains(t, body, "5 March 2026")
}

func TestHelpers_CurrencyFormatting(t *testing.T) {
	store, dir := newStore(t)
	writeTemplate(t, dir, "price.html", `Total: {{formatCurrency .amount .currency}}`)

	body := store.Render("price", map[string]any{"amount": 1234.5, "currency": "EUR"})

	require.Contains(t, body, "1,234.50")
}

func TestHelpers_CurrencyUnknownCode(t *testing.T) {
	store, dir := newStore(t)
	writeTemplate(t, dir, "price.html", `{{formatCurrency .amount .currency}}`)

	body := store.Render("price", map[string]any{"amount": 10.0, "currency": "NOPE"})

	require.Contains(t, body, "10.00 NOPE")
}

func TestHelpers_Comparisons(t *testing.T) {
	store, dir := newStore(t)
	writeTemplate(t, dir, "cmp.html",
		`{{if gt .amount 100.0}}HIGH{{else}}LOW{{end}};{{if eq .count "3"}}THREE{{end}};{{if lt .amount 100.0}}SMALL{{end}}`)

	body := store.Render("cmp", map[string]any{"amount": 250.5, "count": 3})

	require.Contains(t, body, "HIGH")
	require.Contains(t, body, "THREE")
	require.NotContains(t, body, "SMALL")
}
