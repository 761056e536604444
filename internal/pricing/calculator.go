package pricing

import "github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"

// Summary carries cart-level totals supplied by the promotion engine.
// Promotion math happens server-side; when a summary is present its amounts
// win over the locally computed item sums.
type Summary struct {
	OriginalTotal int64
	TotalDiscount int64
	HasTotals     bool
}

// Calculate derives order totals from the cart items and an optional
// promotion summary. All amounts are in minor currency units.
// The result always satisfies TotalPrice = max(0, OriginalTotal - TotalDiscount).
func Calculate(items []domain.CartItem, summary *Summary) domain.Totals {
	var itemsPrice int64
	for _, item := range items {
		itemsPrice += item.Chargeable()
	}

	totals := domain.Totals{
		ItemsPrice:    itemsPrice,
		OriginalTotal: itemsPrice,
	}

	if summary != nil && summary.HasTotals {
		if summary.OriginalTotal > 0 {
			totals.OriginalTotal = summary.OriginalTotal
		}
		totals.TotalDiscount = summary.TotalDiscount
	}

	totals.TotalPrice = totals.OriginalTotal - totals.TotalDiscount
	if totals.TotalPrice < 0 {
		totals.TotalPrice = 0
	}

	return totals
}
