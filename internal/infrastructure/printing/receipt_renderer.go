package printing

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/receipt.txt.tmpl
var templateFS embed.FS

// ReceiptConfig configures the text receipt layout
type ReceiptConfig struct {
	StoreName     string
	Currency      string // ISO 4217, default USD
	Locale        string // BCP 47, default en-US
	Width         int    // characters per line, default 40
	VerifyBaseURL string // the token is appended; empty prints the bare token
	Location      *time.Location
}

// TextReceiptRenderer renders sales with the embedded receipt template
type TextReceiptRenderer struct {
	cfg     ReceiptConfig
	tmpl    *template.Template
	printer *message.Printer
	unit    currency.Unit
	scale   int
	titler  cases.Caser
}

// NewTextReceiptRenderer parses the locale, currency and template
func NewTextReceiptRenderer(cfg ReceiptConfig) (*TextReceiptRenderer, error) {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.Locale == "" {
		cfg.Locale = "en-US"
	}
	if cfg.Width <= 0 {
		cfg.Width = 40
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("invalid receipt locale %q: %w", cfg.Locale, err)
	}
	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid receipt currency %q: %w", cfg.Currency, err)
	}
	scale, _ := currency.Standard.Rounding(unit)

	r := &TextReceiptRenderer{
		cfg:     cfg,
		printer: message.NewPrinter(tag),
		unit:    unit,
		scale:   scale,
		titler:  cases.Title(tag),
	}

	tmpl, err := template.New("receipt.txt.tmpl").Funcs(r.funcMap()).ParseFS(templateFS, "templates/receipt.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Render produces the text receipt of sale
func (r *TextReceiptRenderer) Render(sale *pos.Sale) (string, error) {
	if sale == nil {
		return "", fmt.Errorf("render receipt: nil sale")
	}
	data := NewReceiptData(sale, r.cfg.StoreName, r.cfg.VerifyBaseURL)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render receipt %s: %w", sale.Reference, err)
	}
	return buf.String(), nil
}

// FormatMoney formats d with the currency code and locale grouping, e.g. "USD 1,234.50"
func (r *TextReceiptRenderer) FormatMoney(d decimal.Decimal) string {
	return r.unit.String() + " " + r.formatNumber(d, r.scale)
}

func (r *TextReceiptRenderer) formatNumber(d decimal.Decimal, scale int) string {
	rounded := d.Round(int32(scale))
	return r.printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(scale)))
}

func (r *TextReceiptRenderer) funcMap() template.FuncMap {
	width := r.cfg.Width
	return template.FuncMap{
		"money": func(v any) string {
			return r.FormatMoney(toDecimal(v))
		},
		"negate": func(v any) string {
			return "-" + r.FormatMoney(toDecimal(v))
		},
		"qty": func(d decimal.Decimal) string {
			if d.Equal(d.Truncate(0)) {
				return r.formatNumber(d, 0)
			}
			return r.formatNumber(d, 3)
		},
		"datetime": func(t time.Time) string {
			return t.In(r.cfg.Location).Format("2006-01-02 15:04")
		},
		"title": func(s string) string {
			return r.titler.String(strings.ReplaceAll(strings.ToLower(s), "_", " "))
		},
		"rule": func() string {
			return strings.Repeat("-", width)
		},
		"center": func(s string) string {
			return center(s, width)
		},
		"pair": func(left, right string) string {
			return pair(left, right, width)
		},
		"truncate": func(s string) string {
			return truncate(s, width)
		},
		"wrap": func(s string) string {
			return wrap(s, width)
		},
	}
}

func toDecimal(v any) decimal.Decimal {
	switch d := v.(type) {
	case decimal.Decimal:
		return d
	case *decimal.Decimal:
		if d != nil {
			return *d
		}
	}
	return decimal.Zero
}

// pair left-aligns left and right-aligns right on one line, spilling to a
// second line when both do not fit
func pair(left, right string, width int) string {
	gap := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		return left + "\n" + padLeft(right, width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

func padLeft(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// wrap breaks s on spaces into lines of at most width runes; longer words are split
func wrap(s string, width int) string {
	var lines []string
	var line []rune
	flush := func() {
		if len(line) > 0 {
			lines = append(lines, string(line))
			line = line[:0]
		}
	}
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > width {
			flush()
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		if len(line) > 0 && len(line)+1+len(w) > width {
			flush()
		}
		if len(line) > 0 {
			line = append(line, ' ')
		}
		line = append(line, w...)
	}
	flush()
	return strings.Join(lines, "\n")
}
