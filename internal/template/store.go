package template

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultLayout wraps the "content" context field when no named template is
// available. Rendering must never be the reason an email fails to send.
const defaultLayout = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f4;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr>
      <td align="center" style="padding:24px;">
        <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:4px;">
          <tr>
            <td style="padding:32px;font-family:Arial,sans-serif;font-size:14px;color:#333333;">
              {{.content}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`

// Store loads, compiles and caches named templates from a directory.
// A given name is compiled at most once per process lifetime.
type Store struct {
	dir    string
	locale language.Tag
	log    *zap.Logger

	mu       sync.Mutex
	cache    map[string]*htmltemplate.Template
	fallback *htmltemplate.Template
}

func NewStore(dir, locale string, logger *zap.Logger) *Store {
	tag, err := language.Parse(locale)
	if err != nil {
		logger.Warn("invalid locale, using English", zap.String("locale", locale), zap.Error(err))
		tag = language.English
	}

	s := &Store{
		dir:    dir,
		locale: tag,
		log:    logger,
		cache:  make(map[string]*htmltemplate.Template),
	}
	s.fallback = htmltemplate.Must(
		htmltemplate.New("default").Funcs(s.funcs()).Parse(defaultLayout),
	)
	return s
}

// Render resolves name to a compiled template and executes it with data.
// A missing or broken template falls back to the default layout, which
// embeds the "content" context field.
func (s *Store) Render(name string, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}

	if name == "" {
		return s.renderDefault(data)
	}

	tmpl, err := s.lookup(name)
	if err != nil {
		s.log.Warn("template unavailable, using default layout",
			zap.String("template", name),
			zap.Error(err),
		)
		return s.renderDefault(data)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.log.Warn("template execution failed, using default layout",
			zap.String("template", name),
			zap.Error(err),
		)
		return s.renderDefault(data)
	}
	return buf.String()
}

func (s *Store) lookup(name string) (*htmltemplate.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tmpl, ok := s.cache[name]; ok {
		return tmpl, nil
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename += ".html"
	}

	tmpl, err := htmltemplate.New(filepath.Base(filename)).
		Funcs(s.funcs()).
		ParseFiles(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}

	s.cache[name] = tmpl
	return tmpl, nil
}

func (s *Store) renderDefault(data map[string]any) string {
	// The caller may hand over full body HTML in "content"; keep it intact.
	ctx := make(map[string]any, len(data))
	for k, v := range data {
		ctx[k] = v
	}
	if content, ok := ctx["content"].(string); ok {
		ctx["content"] = htmltemplate.HTML(content)
	}

	var buf bytes.Buffer
	if err := s.fallback.Execute(&buf, ctx); err != nil {
		s.log.Error("default layout execution failed", zap.Error(err))
		if content, ok := data["content"].(string); ok {
			return content
		}
		return ""
	}
	return buf.String()
}

func (s *Store) funcs() htmltemplate.FuncMap {
	return htmltemplate.FuncMap{
		"formatDate":     formatDate,
		"formatLongDate": formatLongDate,
		"formatCurrency": s.formatCurrency,
		"eq":             compareEq,
		"gt":             compareGt,
		"lt":             compareLt,
	}
}

// formatDate renders a date numerically, e.g. 02-01-2006.
func formatDate(v any) string {
	t, ok := asTime(v)
	if !ok {
		return ""
	}
	return t.Format("02-01-2006")
}

// formatLongDate renders a date with a written-out month, e.g. 2 January 2006.
func formatLongDate(v any) string {
	t, ok := asTime(v)
	if !ok {
		return ""
	}
	return t.Format("2 January 2006")
}

func (s *Store) formatCurrency(amount any, code string) string {
	f, ok := asFloat(amount)
	if !ok {
		return ""
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%.2f %s", f, code)
	}
	p := message.NewPrinter(s.locale)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(f)))
}

// Comparison helpers coerce numbers before comparing, so template contexts
// may mix int, float64 and numeric strings.
func compareEq(a, b any) bool {
	fa, aok := asFloat(a)
	fb, bok := asFloat(b)
	if aok && bok {
		return fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareGt(a, b any) bool {
	fa, aok := asFloat(a)
	fb, bok := asFloat(b)
	return aok && bok && fa > fb
}

func compareLt(a, b any) bool {
	fa, aok := asFloat(a)
	fb, bok := asFloat(b)
	return aok && bok && fa < fb
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
