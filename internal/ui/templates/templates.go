package templates

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"retail-dashboard/internal/models"
)

//go:embed *.html
var files embed.FS

var funcs = template.FuncMap{
	"count": count,
	"ago":   humanize.Time,
	"field": newFilterField,
}

var pages = template.Must(template.New("pages").Funcs(funcs).ParseFS(files, "*.html"))

// PageData drives the full dashboard page. View is nil until the session
// has a dataset.
type PageData struct {
	View    *models.DashboardView
	Error   string
	MaxRows int
	Signals string
}

// pageShell carries the fragments rendered by templ components into the
// html/template page layout.
type pageShell struct {
	PageData
	KPIs    template.HTML
	Records template.HTML
}

type filterField struct {
	Label    string
	Key      string
	Options  []string
	Selected models.Set
}

func newFilterField(label, key string, options []string, selected models.Set) filterField {
	return filterField{Label: label, Key: key, Options: options, Selected: selected}
}

// Money formats a currency amount as "$1,234.56".
func Money(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// Rating formats an average rating, or "no data" when nothing contributed.
func Rating(m models.Mean) string {
	if !m.Valid {
		return "no data"
	}
	return fmt.Sprintf("%.2f ⭐", m.Value)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

// Dashboard renders the full page. The metric tiles and the records table
// are the same components the SSE handlers patch in.
func Dashboard(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		shell := pageShell{PageData: data}
		if view := data.View; view != nil {
			var err error
			if shell.KPIs, err = templ.ToGoHTML(ctx, KPIs(view.Summary)); err != nil {
				return err
			}
			if shell.Records, err = templ.ToGoHTML(ctx, RecordsTable(view.Records, data.MaxRows)); err != nil {
				return err
			}
		}
		return pages.ExecuteTemplate(w, "page", shell)
	})
}

// RenderString renders c into a string, for SSE element patches.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Series is one labelled chart series.
type Series struct {
	Labels []string `json:"labels"`
	Values []any    `json:"values"`
}

// Charts is the browser-side chart model carried in the "charts" signal.
type Charts struct {
	Products  Series `json:"products"`
	Branches  Series `json:"branches"`
	Payments  Series `json:"payments"`
	Monthly   Series `json:"monthly"`
	Customers Series `json:"customers"`
	Ratings   Series `json:"ratings"`
}

// NewCharts converts a summary into chart series. Undefined ratings become
// null so the chart leaves a gap.
func NewCharts(s models.Summary) Charts {
	var c Charts
	for _, p := range s.SalesByProductLine {
		c.Products.add(p.ProductLine, p.Total)
	}
	for _, b := range s.GrossIncomeByBranch {
		c.Branches.add(b.Branch, b.GrossIncome)
	}
	for _, p := range s.PaymentCounts {
		c.Payments.add(fmt.Sprintf("%s (%.1f%%)", p.Payment, p.Share), p.Count)
	}
	for _, m := range s.MonthlySales {
		c.Monthly.add(m.Month, m.Total)
	}
	for _, ct := range s.CustomerTypeCounts {
		c.Customers.add(ct.CustomerType, ct.Count)
	}
	for _, r := range s.RatingByProductLine {
		c.Ratings.add(r.ProductLine, r.AverageRating)
	}
	return c
}

func (s *Series) add(label string, value any) {
	s.Labels = append(s.Labels, label)
	s.Values = append(s.Values, value)
}

// Signals encodes the page signals: the resolved filter selection and the
// chart series.
func Signals(view models.DashboardView) ([]byte, error) {
	return json.Marshal(map[string]any{
		"filters": view.Selection,
		"charts":  NewCharts(view.Summary),
	})
}
