package templates

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"retail-dashboard/internal/models"
)

func testView() *models.DashboardView {
	records := []models.Record{
		{Branch: "A", City: "Yangon", CustomerType: "Member", Gender: "Female", ProductLine: "Health and beauty", Payment: "Ewallet", Total: 1234.5, GrossIncome: 61.7, Rating: 9.1, Date: time.Date(2019, 1, 5, 0, 0, 0, 0, time.UTC), Month: "2019-01"},
		{Branch: "B", City: "Mandalay", CustomerType: "Normal", Gender: "Male", ProductLine: "Sports and travel", Payment: "Cash", Total: 20, GrossIncome: 1, Rating: 5},
	}
	ds := &models.Dataset{ID: "ds-1", Name: "sales.xlsx", LoadedAt: time.Now(), Records: records}
	return &models.DashboardView{
		Dataset: ds,
		Options: models.FilterOptions{
			Branch:       []string{"A", "B"},
			CustomerType: []string{"Member", "Normal"},
			City:         []string{"Yangon", "Mandalay"},
			Gender:       []string{"Female", "Male"},
			ProductLine:  []string{"Health and beauty", "Sports and travel"},
		},
		Selection: models.FilterSelection{
			Branch:       models.NewSet("A"),
			CustomerType: models.NewSet("Member", "Normal"),
			City:         models.NewSet("Yangon", "Mandalay"),
			Gender:       models.NewSet("Female", "Male"),
			ProductLine:  models.NewSet("Health and beauty", "Sports and travel"),
		},
		Summary: models.Summary{
			RecordCount:      1,
			TotalSales:       1234.5,
			TotalGrossIncome: 61.7,
			AverageRating:    models.Mean{Value: 9.1, Valid: true},
			PaymentCounts:    []models.PaymentCount{{Payment: "Ewallet", Count: 1, Share: 100}},
			RatingByProductLine: []models.ProductRating{
				{ProductLine: "Health and beauty", AverageRating: models.Mean{Value: 9.1, Valid: true}},
				{ProductLine: "Sports and travel"},
			},
		},
		Records: records[:1],
	}
}

func render(t *testing.T, data PageData) string {
	t.Helper()
	html, err := RenderString(context.Background(), Dashboard(data))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return html
}

func TestMoney(t *testing.T) {
	tests := map[float64]string{
		0:         "$0.00",
		1234.5:    "$1,234.50",
		1000000:   "$1,000,000.00",
		-12.5:     "-$12.50",
		322966.75: "$322,966.75",
	}
	for in, want := range tests {
		if got := Money(in); got != want {
			t.Errorf("Money(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRating(t *testing.T) {
	if got := Rating(models.Mean{Value: 7, Valid: true}); got != "7.00 ⭐" {
		t.Errorf("Rating = %q", got)
	}
	if got := Rating(models.Mean{}); got != "no data" {
		t.Errorf("Rating(no rows) = %q, want %q", got, "no data")
	}
}

func TestDashboard_UploadPrompt(t *testing.T) {
	html := render(t, PageData{})

	if !strings.Contains(html, "Please upload an Excel file to begin.") {
		t.Error("page without a dataset should prompt for an upload")
	}
	if strings.Contains(html, `id="kpis"`) {
		t.Error("page without a dataset should not render metrics")
	}
}

func TestDashboard_ShowsParseError(t *testing.T) {
	html := render(t, PageData{Error: "missing column <Rating>"})

	if !strings.Contains(html, "missing column &lt;Rating&gt;") {
		t.Error("error message should be rendered escaped")
	}
}

func TestDashboard_WithView(t *testing.T) {
	view := testView()
	signals, err := Signals(*view)
	if err != nil {
		t.Fatal(err)
	}
	html := render(t, PageData{View: view, MaxRows: 10, Signals: string(signals)})

	expected := []string{
		"📊 Retail Sales Dashboard",
		`id="kpis"`,
		"$1,234.50",
		"9.10 ⭐",
		`data-bind="filters.customer_type"`,
		"Select Product Line",
		`<option value="A" selected>`,
		`<option value="B">`,
		"🔎 View Raw Data",
		"Yangon",
		"2019-01-05",
		"sales.xlsx",
	}
	for _, s := range expected {
		if !strings.Contains(html, s) {
			t.Errorf("expected page to contain %q", s)
		}
	}
}

func TestKPIs_NoRows(t *testing.T) {
	html, err := RenderString(context.Background(), KPIs(models.Summary{}))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{`id="kpis"`, "$0.00", "no data"} {
		if !strings.Contains(html, s) {
			t.Errorf("expected KPIs to contain %q", s)
		}
	}
}

func TestRecordsTable_Limit(t *testing.T) {
	records := make([]models.Record, 5)
	for i := range records {
		records[i] = models.Record{Branch: "A", City: "Yangon", Total: float64(i)}
	}

	html, err := RenderString(context.Background(), RecordsTable(records, 2))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(html, "<tr>") - 1; got != 2 {
		t.Errorf("rendered %d rows, want 2", got)
	}
	if !strings.Contains(html, "Showing 2 of 5 rows") {
		t.Error("table should say how many rows are hidden")
	}

	html, err = RenderString(context.Background(), RecordsTable(nil, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "No rows match") {
		t.Error("empty view should render a placeholder")
	}
}

func TestRecordsTable_EscapesAndMarksMissingRating(t *testing.T) {
	records := []models.Record{
		{Branch: "<b>A</b>", ProductLine: "Food & beverages", Total: 1234.5, Rating: 7.3},
		{Branch: "B", RatingMissing: true},
	}

	html, err := RenderString(context.Background(), RecordsTable(records, 0))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		"<td>&lt;b&gt;A&lt;/b&gt;</td>",
		`<span class="category-badge">Food &amp; beverages</span>`,
		"<strong>1,234.50</strong>",
		"<td>7.3</td>",
		"<td>–</td>",
		"Showing 2 of 2 rows",
	} {
		if !strings.Contains(html, s) {
			t.Errorf("expected table to contain %q", s)
		}
	}
	if strings.Contains(html, "<b>A</b>") {
		t.Error("cell text must be escaped")
	}
}

func TestDashboard_EmbedsFragments(t *testing.T) {
	view := testView()
	page := render(t, PageData{View: view, MaxRows: 10})

	for _, c := range []templ.Component{KPIs(view.Summary), RecordsTable(view.Records, 10)} {
		fragment, err := RenderString(context.Background(), c)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(page, fragment) {
			t.Errorf("page should embed the fragment unescaped:\n%s", fragment)
		}
	}
}

func TestRender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderString(ctx, KPIs(models.Summary{})); err == nil {
		t.Error("render should fail on a canceled context")
	}
	if _, err := RenderString(ctx, Dashboard(PageData{View: testView()})); err == nil {
		t.Error("page render should fail on a canceled context")
	}
}

func TestSignals(t *testing.T) {
	raw, err := Signals(*testView())
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Filters models.FilterSelection `json:"filters"`
		Charts  struct {
			Payments Series `json:"payments"`
			Ratings  Series `json:"ratings"`
		} `json:"charts"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}

	if !got.Filters.Branch.Contains("A") || got.Filters.Branch.Contains("B") {
		t.Errorf("branch filter = %v", got.Filters.Branch.Values())
	}
	if len(got.Charts.Payments.Labels) != 1 || got.Charts.Payments.Labels[0] != "Ewallet (100.0%)" {
		t.Errorf("payment labels = %v", got.Charts.Payments.Labels)
	}
	if len(got.Charts.Ratings.Values) != 2 || got.Charts.Ratings.Values[1] != nil {
		t.Errorf("undefined rating should encode as null, got %v", got.Charts.Ratings.Values)
	}
}
