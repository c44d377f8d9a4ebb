package domain

// Package is a catalog entry purchasable with coins. Prices are stored in
// whole coins; the catalog is read-only per fetch.
type Package struct {
	ID          string
	Name        string
	Description string
	// Price is the full coin cost of one unit.
	Price int64
}

// Purchase records one successful package redemption during a purchase run.
type Purchase struct {
	PackageID string
	Name      string
	Price     int64
}

// PurchaseReport aggregates a purchase run. Spent is measured by fresh
// balance queries before and after the run, not by summing item prices, so
// concurrent balance changes do not skew the figure.
type PurchaseReport struct {
	Items        []Purchase
	Spent        int64
	QuotaReached bool
}

// CollectReport is the final outcome of one collect run for a user.
type CollectReport struct {
	Found          int
	Completed      int
	InitialBalance int64
	FinalBalance   int64
	// PerSource counts discovered media per campaign zone, for reporting.
	PerSource map[string]int
	Purchases *PurchaseReport
}

// CoinsEarned is the balance delta attributable to the redemption phase.
func (r CollectReport) CoinsEarned() int64 {
	earned := r.FinalBalance - r.InitialBalance
	if r.Purchases != nil {
		earned += r.Purchases.Spent
	}
	return earned
}
