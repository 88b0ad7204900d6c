package core

const (
	Bronze   Tier = "bronze"
	Silver   Tier = "silver"
	Gold     Tier = "gold"
	Platinum Tier = "platinum"
)

// Tier is the donor classification derived from cumulative giving.
type Tier string

// Tiers lists every tier in ascending order.
var Tiers = []Tier{Bronze, Silver, Gold, Platinum}

// Lower bounds, inclusive, in major units.
var (
	SilverThreshold   = FromMajor(1_000)
	GoldThreshold     = FromMajor(10_000)
	PlatinumThreshold = FromMajor(50_000)
)

// TierFor maps a cumulative total to its tier.
func TierFor(total Money) Tier {
	switch {
	case total.Cents >= PlatinumThreshold.Cents:
		return Platinum
	case total.Cents >= GoldThreshold.Cents:
		return Gold
	case total.Cents >= SilverThreshold.Cents:
		return Silver
	default:
		return Bronze
	}
}

func (t Tier) Valid() bool {
	switch t {
	case Bronze, Silver, Gold, Platinum:
		return true
	}
	return false
}
