package services

import (
	"cmp"
	"slices"

	"retail-dashboard/internal/models"
)

type ratingAcc struct {
	sum   float64
	count int
}

func (a *ratingAcc) add(r models.Record) {
	if r.RatingMissing {
		return
	}
	a.sum += r.Rating
	a.count++
}

func (a ratingAcc) mean() models.Mean {
	if a.count == 0 {
		return models.Mean{}
	}
	return models.Mean{Value: a.sum / float64(a.count), Valid: true}
}

// Summarize computes every dashboard aggregate over a filtered view. An
// empty view yields zero sums, empty series and an invalid mean.
func Summarize(view []models.Record) models.Summary {
	productSales := make(map[string]float64)
	branchIncome := make(map[string]float64)
	payments := make(map[string]int)
	monthly := make(map[string]float64)
	customers := make(map[string]int)
	productRatings := make(map[string]ratingAcc)

	var (
		s      models.Summary
		rating ratingAcc
	)

	for _, r := range view {
		s.TotalSales += r.Total
		s.TotalGrossIncome += r.GrossIncome
		rating.add(r)

		productSales[r.ProductLine] += r.Total
		branchIncome[r.Branch] += r.GrossIncome
		payments[r.Payment]++
		customers[r.CustomerType]++

		pr := productRatings[r.ProductLine]
		pr.add(r)
		productRatings[r.ProductLine] = pr

		// Rows without a date stay in every other aggregate.
		if r.Month != "" {
			monthly[r.Month] += r.Total
		}
	}

	s.RecordCount = len(view)
	s.AverageRating = rating.mean()
	s.SalesByProductLine = sortProductSales(productSales)
	s.GrossIncomeByBranch = sortBranchIncome(branchIncome)
	s.PaymentCounts = sortPaymentCounts(payments, len(view))
	s.MonthlySales = sortMonthlySales(monthly)
	s.CustomerTypeCounts = sortCustomerTypes(customers)
	s.RatingByProductLine = sortProductRatings(productRatings)
	return s
}

// descending orders by value, largest first, then by key.
func descending[V cmp.Ordered](av, bv V, ak, bk string) int {
	if c := cmp.Compare(bv, av); c != 0 {
		return c
	}
	return cmp.Compare(ak, bk)
}

func sortProductSales(groups map[string]float64) []models.ProductSales {
	result := make([]models.ProductSales, 0, len(groups))
	for line, total := range groups {
		result = append(result, models.ProductSales{ProductLine: line, Total: total})
	}
	slices.SortFunc(result, func(a, b models.ProductSales) int {
		return descending(a.Total, b.Total, a.ProductLine, b.ProductLine)
	})
	return result
}

func sortBranchIncome(groups map[string]float64) []models.BranchIncome {
	result := make([]models.BranchIncome, 0, len(groups))
	for branch, income := range groups {
		result = append(result, models.BranchIncome{Branch: branch, GrossIncome: income})
	}
	slices.SortFunc(result, func(a, b models.BranchIncome) int {
		return cmp.Compare(a.Branch, b.Branch)
	})
	return result
}

func sortPaymentCounts(groups map[string]int, rows int) []models.PaymentCount {
	result := make([]models.PaymentCount, 0, len(groups))
	for payment, count := range groups {
		pc := models.PaymentCount{Payment: payment, Count: count}
		if rows > 0 {
			pc.Share = float64(count) / float64(rows) * 100
		}
		result = append(result, pc)
	}
	slices.SortFunc(result, func(a, b models.PaymentCount) int {
		return descending(a.Count, b.Count, a.Payment, b.Payment)
	})
	return result
}

// sortMonthlySales orders chronologically; YYYY-MM labels sort as strings.
func sortMonthlySales(groups map[string]float64) []models.MonthlyData {
	result := make([]models.MonthlyData, 0, len(groups))
	for month, total := range groups {
		result = append(result, models.MonthlyData{Month: month, Total: total})
	}
	slices.SortFunc(result, func(a, b models.MonthlyData) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return result
}

func sortCustomerTypes(groups map[string]int) []models.CustomerTypeCount {
	result := make([]models.CustomerTypeCount, 0, len(groups))
	for ct, count := range groups {
		result = append(result, models.CustomerTypeCount{CustomerType: ct, Count: count})
	}
	slices.SortFunc(result, func(a, b models.CustomerTypeCount) int {
		return descending(a.Count, b.Count, a.CustomerType, b.CustomerType)
	})
	return result
}

func sortProductRatings(groups map[string]ratingAcc) []models.ProductRating {
	result := make([]models.ProductRating, 0, len(groups))
	for line, acc := range groups {
		result = append(result, models.ProductRating{ProductLine: line, AverageRating: acc.mean()})
	}
	slices.SortFunc(result, func(a, b models.ProductRating) int {
		return cmp.Compare(a.ProductLine, b.ProductLine)
	})
	return result
}
