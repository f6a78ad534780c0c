package stats

import (
	"sort"
	"time"

	"golang.org/x/exp/maps"

	"github.com/moneyflow-dev/moneyflow/internal/storage"
	"github.com/moneyflow-dev/moneyflow/internal/util"
)

type WeeklyTrend struct {
	Week       string           `json:"week"`
	WeekLabel  string           `json:"week_label"`
	Categories map[string]int64 `json:"categories"`
}

type MonthlyTrend struct {
	Month string        `json:"month"`
	Weeks []WeeklyTrend `json:"weeks"`
}

type SourceBreakdown struct {
	Source     string  `json:"source"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type TopMerchant struct {
	Merchant string `json:"merchant"`
	Amount   int64  `json:"amount"`
	Count    int    `json:"count"`
}

type CategorySpending struct {
	Category   string  `json:"category"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type DashboardStats struct {
	WeeklyTrends     []MonthlyTrend     `json:"weekly_trends"`
	SourceBreakdown  []SourceBreakdown  `json:"source_breakdown"`
	TopMerchants     []TopMerchant      `json:"top_merchants"`
	CategorySpending []CategorySpending `json:"category_spending"`
}

// DefaultTopMerchants bounds the merchant ranking when the caller does not
// ask for a specific prefix.
const DefaultTopMerchants = 10

const (
	percentageOfTotal = 100

	weekKeyLayout   = "2006-01-02"
	weekLabelLayout = "Jan 2"
	monthKeyLayout  = "2006-01"
)

// Compute aggregates the given transactions into dashboard statistics.
// Only transactions dated within [start, end] (a zero bound is open) and
// with a positive amount contribute: refunds and credits are deliberately
// excluded from spending views. Empty input produces zero-valued stats,
// never an error.
func Compute(transactions []storage.Transaction, start, end time.Time, topMerchants int) DashboardStats {
	if topMerchants == 0 {
		topMerchants = DefaultTopMerchants
	}

	weekCategories := map[string]map[string]int64{}
	sourceTotals := map[string]int64{}
	categoryTotals := map[string]int64{}
	merchantTotals := map[string]*TopMerchant{}

	var total int64

	for _, t := range transactions {
		if !inRange(t.Date(), start, end) {
			continue
		}

		if t.Amount() <= 0 {
			continue
		}

		total += t.Amount()

		week := util.WeekStart(t.Date()).Format(weekKeyLayout)
		categories, ok := weekCategories[week]
		if !ok {
			categories = map[string]int64{}
			weekCategories[week] = categories
		}
		categories[t.Category()] += t.Amount()

		sourceTotals[t.Source()] += t.Amount()
		categoryTotals[t.Category()] += t.Amount()

		if merchant := t.Merchant(); merchant != "" {
			entry, merchantSeen := merchantTotals[merchant]
			if !merchantSeen {
				entry = &TopMerchant{Merchant: merchant}
				merchantTotals[merchant] = entry
			}
			entry.Amount += t.Amount()
			entry.Count++
		}
	}

	return DashboardStats{
		WeeklyTrends:     monthlyTrends(weekCategories),
		SourceBreakdown:  sourceBreakdown(sourceTotals, total),
		TopMerchants:     rankMerchants(merchantTotals, topMerchants),
		CategorySpending: categorySpending(categoryTotals, total),
	}
}

func inRange(date, start, end time.Time) bool {
	if !start.IsZero() && date.Before(start) {
		return false
	}
	if !end.IsZero() && date.After(end) {
		return false
	}
	return true
}

func monthlyTrends(weekCategories map[string]map[string]int64) []MonthlyTrend {
	weeks := maps.Keys(weekCategories)
	sort.Strings(weeks)

	months := []MonthlyTrend{}

	for _, week := range weeks {
		weekStart, err := time.Parse(weekKeyLayout, week)
		if err != nil {
			continue
		}

		trend := WeeklyTrend{
			Week:       week,
			WeekLabel:  weekStart.Format(weekLabelLayout),
			Categories: weekCategories[week],
		}

		month := weekStart.Format(monthKeyLayout)
		if len(months) > 0 && months[len(months)-1].Month == month {
			last := &months[len(months)-1]
			last.Weeks = append(last.Weeks, trend)
			continue
		}

		months = append(months, MonthlyTrend{
			Month: month,
			Weeks: []WeeklyTrend{trend},
		})
	}

	return months
}

func sourceBreakdown(sourceTotals map[string]int64, total int64) []SourceBreakdown {
	sources := maps.Keys(sourceTotals)
	sort.Strings(sources)

	breakdown := make([]SourceBreakdown, 0, len(sources))
	for _, source := range sources {
		breakdown = append(breakdown, SourceBreakdown{
			Source:     source,
			Amount:     sourceTotals[source],
			Percentage: percentage(sourceTotals[source], total),
		})
	}

	return breakdown
}

func rankMerchants(merchantTotals map[string]*TopMerchant, limit int) []TopMerchant {
	ranked := make([]TopMerchant, 0, len(merchantTotals))
	for _, entry := range merchantTotals {
		ranked = append(ranked, *entry)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Merchant < ranked[j].Merchant
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

func categorySpending(categoryTotals map[string]int64, total int64) []CategorySpending {
	spending := make([]CategorySpending, 0, len(categoryTotals))
	for _, category := range maps.Keys(categoryTotals) {
		spending = append(spending, CategorySpending{
			Category:   category,
			Amount:     categoryTotals[category],
			Percentage: percentage(categoryTotals[category], total),
		})
	}

	// Presentation order. Callers are free to resort.
	sort.Slice(spending, func(i, j int) bool {
		if spending[i].Amount != spending[j].Amount {
			return spending[i].Amount > spending[j].Amount
		}
		return spending[i].Category < spending[j].Category
	})

	return spending
}

func percentage(amount, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(amount) / float64(total) * percentageOfTotal
}
