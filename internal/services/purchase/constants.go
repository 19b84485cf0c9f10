package purchase

import "github.com/shopspring/decimal"

// Pack is a purchasable credit bundle: the student pays PriceEUR through the
// external payment provider and receives Credits in their CREDITS wallet.
type Pack struct {
	ProductID string
	Credits   decimal.Decimal
	PriceEUR  decimal.Decimal
}

var packs = map[string]Pack{
	"product_10_eur": {ProductID: "product_10_eur", Credits: decimal.NewFromInt(100), PriceEUR: decimal.NewFromInt(10)},
	"product_20_eur": {ProductID: "product_20_eur", Credits: decimal.NewFromInt(250), PriceEUR: decimal.NewFromInt(20)},
	"product_50_eur": {ProductID: "product_50_eur", Credits: decimal.NewFromInt(1000), PriceEUR: decimal.NewFromInt(50)},
}

// Packs lists the available credit packs.
func Packs() []Pack {
	out := make([]Pack, 0, len(packs))
	for _, p := range packs {
		out = append(out, p)
	}
	return out
}
