package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retail-dashboard/internal/loader"
	"retail-dashboard/internal/models"
)

func TestSummarize_BranchScenario(t *testing.T) {
	ds := &models.Dataset{Records: []models.Record{
		{Branch: "A", Total: 100, GrossIncome: 10, Rating: 8},
		{Branch: "B", Total: 50, GrossIncome: 5, Rating: 6},
	}}

	view := Apply(ds, models.FilterSelection{Branch: models.NewSet("A")})
	s := Summarize(view)

	assert.Equal(t, 1, s.RecordCount)
	assert.Equal(t, 100.0, s.TotalSales)
	assert.Equal(t, 10.0, s.TotalGrossIncome)
	require.True(t, s.AverageRating.Valid)
	assert.Equal(t, 8.0, s.AverageRating.Value)
}

func TestSummarize_SkipsMissingRatings(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())
	rows := [][]interface{}{
		{"Branch", "City", "Customer_type", "Gender", "Product line", "Payment", "Total", "gross income", "Rating", "Date"},
		{"A", "Yangon", "Member", "Female", "Health and beauty", "Cash", 100, 10, 8, "05/01/2019"},
		{"A", "Yangon", "Normal", "Male", "Health and beauty", "Cash", 50, 5, "", "06/01/2019"},
		{"B", "Mandalay", "Normal", "Male", "Sports and travel", "Ewallet", 20, 2, "", "07/01/2019"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	ds, err := loader.New(testLogger()).Parse(context.Background(), "sales.xlsx", buf.Bytes())
	require.NoError(t, err)

	s := Summarize(ds.Records)

	assert.Equal(t, 3, s.RecordCount)
	assert.Equal(t, 170.0, s.TotalSales)
	require.True(t, s.AverageRating.Valid)
	assert.Equal(t, 8.0, s.AverageRating.Value)

	require.Len(t, s.RatingByProductLine, 2)
	assert.Equal(t, models.Mean{Value: 8, Valid: true}, s.RatingByProductLine[0].AverageRating)
	assert.Equal(t, "Sports and travel", s.RatingByProductLine[1].ProductLine)
	assert.False(t, s.RatingByProductLine[1].AverageRating.Valid, "a line with no ratings has no mean")
}

func TestSummarize_EmptyGenderSelection(t *testing.T) {
	ds := testDataset()
	sel := models.FilterSelection{Gender: models.NewSet()}

	s := Summarize(Apply(ds, sel))

	assert.Zero(t, s.RecordCount)
	assert.Zero(t, s.TotalSales)
	assert.Zero(t, s.TotalGrossIncome)
	assert.False(t, s.AverageRating.Valid, "mean of no rows is reported as no data")
	assert.Empty(t, s.SalesByProductLine)
	assert.Empty(t, s.GrossIncomeByBranch)
	assert.Empty(t, s.PaymentCounts)
	assert.Empty(t, s.MonthlySales)
	assert.Empty(t, s.CustomerTypeCounts)
	assert.Empty(t, s.RatingByProductLine)
}

func TestSummarize_MonthlySeriesChronological(t *testing.T) {
	view := []models.Record{
		{Total: 5, Month: "2024-02", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Total: 10, Month: "2024-01", Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		{Total: 20, Month: "2024-01", Date: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)},
	}

	s := Summarize(view)

	require.Len(t, s.MonthlySales, 2)
	assert.Equal(t, models.MonthlyData{Month: "2024-01", Total: 30}, s.MonthlySales[0])
	assert.Equal(t, models.MonthlyData{Month: "2024-02", Total: 5}, s.MonthlySales[1])
}

func TestSummarize_MissingDatesOnlyLeaveMonthlySeries(t *testing.T) {
	view := []models.Record{
		{ProductLine: "Food and beverages", Total: 10, Rating: 5, Month: "2024-03"},
		{ProductLine: "Food and beverages", Total: 15, Rating: 7},
	}

	s := Summarize(view)

	assert.Equal(t, 25.0, s.TotalSales)
	assert.Equal(t, 6.0, s.AverageRating.Value)
	require.Len(t, s.MonthlySales, 1)
	assert.Equal(t, 10.0, s.MonthlySales[0].Total)
}

func TestSummarize_GroupingConsistency(t *testing.T) {
	s := Summarize(testDataset().Records)

	var productSum, branchSum, dated float64
	var payments, customers int
	for _, p := range s.SalesByProductLine {
		productSum += p.Total
	}
	for _, b := range s.GrossIncomeByBranch {
		branchSum += b.GrossIncome
	}
	for _, m := range s.MonthlySales {
		dated += m.Total
	}
	for _, p := range s.PaymentCounts {
		payments += p.Count
	}
	for _, c := range s.CustomerTypeCounts {
		customers += c.Count
	}

	assert.InDelta(t, s.TotalSales, productSum, 1e-9)
	assert.InDelta(t, s.TotalGrossIncome, branchSum, 1e-9)
	assert.Equal(t, s.RecordCount, payments)
	assert.Equal(t, s.RecordCount, customers)
	// The undated row (20) is the only one outside the monthly series.
	assert.InDelta(t, s.TotalSales-20, dated, 1e-9)
}

func TestSummarize_Ordering(t *testing.T) {
	s := Summarize(testDataset().Records)

	assert.Equal(t, []models.ProductSales{
		{ProductLine: "Health and beauty", Total: 130},
		{ProductLine: "Sports and travel", Total: 50},
		{ProductLine: "Food and beverages", Total: 20},
	}, s.SalesByProductLine)

	assert.Equal(t, []models.BranchIncome{
		{Branch: "A", GrossIncome: 12},
		{Branch: "B", GrossIncome: 5},
		{Branch: "C", GrossIncome: 3},
	}, s.GrossIncomeByBranch)

	require.Len(t, s.PaymentCounts, 3)
	assert.Equal(t, "Cash", s.PaymentCounts[0].Payment)
	assert.Equal(t, 2, s.PaymentCounts[0].Count)
	assert.InDelta(t, 50.0, s.PaymentCounts[0].Share, 1e-9)
	// Ties fall back to name order.
	assert.Equal(t, "Credit card", s.PaymentCounts[1].Payment)
	assert.Equal(t, "Ewallet", s.PaymentCounts[2].Payment)

	assert.Equal(t, []models.CustomerTypeCount{
		{CustomerType: "Member", Count: 2},
		{CustomerType: "Normal", Count: 2},
	}, s.CustomerTypeCounts)

	require.Len(t, s.RatingByProductLine, 3)
	assert.Equal(t, "Food and beverages", s.RatingByProductLine[0].ProductLine)
	assert.Equal(t, models.Mean{Value: 7.5, Valid: true}, s.RatingByProductLine[1].AverageRating)
	assert.Equal(t, "Sports and travel", s.RatingByProductLine[2].ProductLine)
}

func TestSummarize_PaymentSharesSumToHundred(t *testing.T) {
	s := Summarize(testDataset().Records)
	var total float64
	for _, p := range s.PaymentCounts {
		total += p.Share
	}
	assert.True(t, math.Abs(total-100) < 1e-9, "shares sum to %v", total)
}

func BenchmarkSummarize(b *testing.B) {
	lines := []string{"Health and beauty", "Electronic accessories", "Home and lifestyle", "Sports and travel", "Food and beverages", "Fashion accessories"}
	view := make([]models.Record, 1000)
	for i := range view {
		view[i] = models.Record{
			Branch:       string(rune('A' + i%3)),
			ProductLine:  lines[i%len(lines)],
			Payment:      "Cash",
			CustomerType: "Member",
			Total:        float64(i),
			GrossIncome:  float64(i) / 20,
			Rating:       float64(i%10) + 0.5,
			Month:        "2019-0" + string(rune('1'+i%3)),
		}
	}

	b.ResetTimer()
	for b.Loop() {
		_ = Summarize(view)
	}
}
