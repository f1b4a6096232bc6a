package purchases

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// sellPercentage is the item's own markup, or the purchase-wide one.
func (it Item) sellPercentage(global float64) decimal.Decimal {
	if it.SellPercentage != nil {
		return decimal.NewFromFloat(*it.SellPercentage)
	}
	return decimal.NewFromFloat(global)
}

func (it Item) price() decimal.Decimal { return decimal.New(it.PurchasePriceCents, -2) }

// subtotal is quantity × unit purchase price.
func (it Item) subtotal() decimal.Decimal {
	return it.price().Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Price fills the derived money fields of one item.
func (it *Item) Price(global float64) {
	pct := it.sellPercentage(global).Div(hundred)
	it.Subtotal = it.subtotal()
	it.EstimatedProfit = it.Subtotal.Mul(pct).Round(2)

	it.SalePricePerWeight = decimal.Zero
	if it.UnitWeight == nil || *it.UnitWeight == 0 || it.Quantity == 0 {
		return
	}
	weight := decimal.NewFromFloat(*it.UnitWeight).Mul(decimal.NewFromInt(int64(it.Quantity)))
	it.SalePricePerWeight = it.Subtotal.Mul(decimal.NewFromInt(1).Add(pct)).Div(weight).Round(2)
}

// Price fills every item and the purchase totals.
func (p *Purchase) Price() {
	p.TotalCost, p.TotalEstimatedProfit = decimal.Zero, decimal.Zero
	for i := range p.Items {
		p.Items[i].Price(p.GlobalSellPercentage)
		p.TotalCost = p.TotalCost.Add(p.Items[i].Subtotal)
		p.TotalEstimatedProfit = p.TotalEstimatedProfit.Add(p.Items[i].EstimatedProfit)
	}
}
