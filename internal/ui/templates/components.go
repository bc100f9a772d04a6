package templates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"retail-dashboard/internal/models"
)

const recordsHead = `<thead><tr><th>Date</th><th>Branch</th><th>City</th><th>Customer type</th><th>Gender</th>` +
	`<th>Product line</th><th>Payment</th><th>Total</th><th>Gross income</th><th>Rating</th></tr></thead>`

// KPIs renders the headline metric tiles as the #kpis fragment.
func KPIs(s models.Summary) templ.Component {
	return element(`<div id="kpis" class="kpis">`, `</div>`,
		kpi("Total Sales", Money(s.TotalSales)),
		kpi("Total Profit", Money(s.TotalGrossIncome)),
		kpi("Avg. Rating", Rating(s.AverageRating)),
		kpi("Transactions", count(s.RecordCount)),
	)
}

func kpi(label, value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="kpi"><span class="kpi-label">%s</span><span class="kpi-value">%s</span></div>`,
			templ.EscapeString(label), templ.EscapeString(value))
		return err
	})
}

// RecordsTable renders at most maxRows filtered rows as the #records fragment.
// maxRows <= 0 shows every row.
func RecordsTable(records []models.Record, maxRows int) templ.Component {
	if len(records) == 0 {
		return element(`<div id="records">`, `</div>`, meta("No rows match the current filters."))
	}

	shown := records
	if maxRows > 0 && len(shown) > maxRows {
		shown = shown[:maxRows]
	}
	rows := make([]templ.Component, len(shown))
	for i, r := range shown {
		rows[i] = recordRow(r)
	}

	return element(`<div id="records">`, `</div>`,
		meta(fmt.Sprintf("Showing %s of %s rows", count(len(shown)), count(len(records)))),
		element(`<table class="modern-table">`+recordsHead+`<tbody>`, `</tbody></table>`, rows...),
	)
}

func recordRow(r models.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<tr>")
		cell := func(v string) {
			b.WriteString("<td>" + templ.EscapeString(v) + "</td>")
		}
		cell(day(r.Date))
		cell(r.Branch)
		cell(r.City)
		cell(r.CustomerType)
		cell(r.Gender)
		b.WriteString(`<td><span class="category-badge">` + templ.EscapeString(r.ProductLine) + "</span></td>")
		cell(r.Payment)
		b.WriteString("<td><strong>" + templ.EscapeString(amount(r.Total)) + "</strong></td>")
		cell(amount(r.GrossIncome))
		if r.RatingMissing {
			cell("–")
		} else {
			cell(fmt.Sprintf("%.1f", r.Rating))
		}
		b.WriteString("</tr>")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func meta(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p class="meta">`+templ.EscapeString(text)+`</p>`)
		return err
	})
}

// element wraps children in fixed, trusted markup.
func element(open, close string, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(w, open); err != nil {
			return err
		}
		for _, c := range children {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, close)
		return err
	})
}

func amount(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
