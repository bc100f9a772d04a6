package models

import (
	"encoding/json"
	"time"
)

// Column headers expected in an uploaded sales workbook.
const (
	ColumnDate         = "Date"
	ColumnBranch       = "Branch"
	ColumnCity         = "City"
	ColumnCustomerType = "Customer_type"
	ColumnGender       = "Gender"
	ColumnProductLine  = "Product line"
	ColumnPayment      = "Payment"
	ColumnTotal        = "Total"
	ColumnGrossIncome  = "gross income"
	ColumnRating       = "Rating"
)

// MonthLayout is the sortable label format of Record.Month.
const MonthLayout = "2006-01"

// Record is one retail transaction row. Date is the zero time and Month is
// empty when the sheet held no parseable date. RatingMissing marks a blank or
// unreadable rating cell; such rows stay out of every rating mean.
type Record struct {
	Branch        string    `json:"branch"`
	City          string    `json:"city"`
	CustomerType  string    `json:"customer_type"`
	Gender        string    `json:"gender"`
	ProductLine   string    `json:"product_line"`
	Payment       string    `json:"payment"`
	Total         float64   `json:"total"`
	GrossIncome   float64   `json:"gross_income"`
	Rating        float64   `json:"rating"`
	RatingMissing bool      `json:"rating_missing,omitempty"`
	Date          time.Time `json:"date,omitzero"`
	Month         string    `json:"month,omitempty"`
}

func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// Dataset is the parsed content of one uploaded workbook.
type Dataset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Digest       string    `json:"digest"`
	LoadedAt     time.Time `json:"loaded_at"`
	Records      []Record  `json:"-"`
	MissingDates int       `json:"missing_dates"`
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Mean is an average that may be undefined because no rows contributed.
type Mean struct {
	Value float64
	Valid bool
}

func (m Mean) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Mean) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Mean{}
		return nil
	}
	if err := json.Unmarshal(b, &m.Value); err != nil {
		return err
	}
	m.Valid = true
	return nil
}

type ProductSales struct {
	ProductLine string  `json:"product_line"`
	Total       float64 `json:"total"`
}

type BranchIncome struct {
	Branch      string  `json:"branch"`
	GrossIncome float64 `json:"gross_income"`
}

type PaymentCount struct {
	Payment string  `json:"payment"`
	Count   int     `json:"count"`
	Share   float64 `json:"share"`
}

type MonthlyData struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type CustomerTypeCount struct {
	CustomerType string `json:"customer_type"`
	Count        int    `json:"count"`
}

type ProductRating struct {
	ProductLine   string `json:"product_line"`
	AverageRating Mean   `json:"average_rating"`
}

// Summary bundles every aggregate computed over one filtered view.
type Summary struct {
	RecordCount         int                 `json:"record_count"`
	TotalSales          float64             `json:"total_sales"`
	TotalGrossIncome    float64             `json:"total_gross_income"`
	AverageRating       Mean                `json:"average_rating"`
	SalesByProductLine  []ProductSales      `json:"sales_by_product_line"`
	GrossIncomeByBranch []BranchIncome      `json:"gross_income_by_branch"`
	PaymentCounts       []PaymentCount      `json:"payment_counts"`
	MonthlySales        []MonthlyData       `json:"monthly_sales"`
	CustomerTypeCounts  []CustomerTypeCount `json:"customer_type_counts"`
	RatingByProductLine []ProductRating     `json:"rating_by_product_line"`
}
