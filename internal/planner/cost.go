package planner

import "github.com/FACorreiaa/go-trip-budget/internal/types"

// CategoryTotal is the cost of one category on one day.
//
// Budget categories return zero when excluded through day.Included. When
// included, the base estimate (if includeBase is on) and the custom items of
// the same category are added together. SHOPPING and OTHER have no toggle
// and no base estimate, so their custom items always count in full.
//
// Base costs are converted to minor units here; everything returned is Money.
func CategoryTotal(day types.DayPlan, c types.Category, base types.BaseCosts) types.Money {
	var total types.Money
	if c.HasBudgetToggle() {
		if on, _ := day.Included.Get(c); !on {
			return 0
		}
		if on, _ := day.IncludeBase.Get(c); on {
			total += base.For(c)
		}
	}
	for _, item := range day.CustomItems {
		if item.Category == c {
			total += item.Total()
		}
	}
	return total
}

// DayCost sums every category of a day.
func DayCost(day types.DayPlan, base types.BaseCosts) types.Money {
	var total types.Money
	for _, c := range types.Categories {
		total += CategoryTotal(day, c, base)
	}
	return total
}

// TripTotal sums DayCost over all days.
func TripTotal(days []types.DayPlan, base types.BaseCosts) types.Money {
	var total types.Money
	for _, d := range days {
		total += DayCost(d, base)
	}
	return total
}

// CategoryCost is one line of a cost breakdown.
type CategoryCost struct {
	Category types.Category `json:"category"`
	Amount   types.Money    `json:"amount"`
	Included bool           `json:"included"`
}

// DayCostSummary is the per-category cost of a day.
type DayCostSummary struct {
	DayNumber  int            `json:"dayNumber"`
	Date       string         `json:"date,omitempty"`
	Categories []CategoryCost `json:"categories"`
	Total      types.Money    `json:"total"`
}

// CostSummary is the read-only cost view handed to exports and the API.
type CostSummary struct {
	Days      []DayCostSummary `json:"days"`
	TripTotal types.Money      `json:"tripTotal"`
}

// Summarize computes the full cost breakdown of a trip.
func Summarize(days []types.DayPlan, base types.BaseCosts) CostSummary {
	summary := CostSummary{Days: make([]DayCostSummary, 0, len(days))}
	for _, d := range days {
		ds := DayCostSummary{DayNumber: d.DayNumber, Date: d.Date}
		for _, c := range types.Categories {
			included := true
			if on, ok := d.Included.Get(c); ok {
				included = on
			}
			amount := CategoryTotal(d, c, base)
			ds.Categories = append(ds.Categories, CategoryCost{Category: c, Amount: amount, Included: included})
			ds.Total += amount
		}
		summary.Days = append(summary.Days, ds)
		summary.TripTotal += ds.Total
	}
	return summary
}
