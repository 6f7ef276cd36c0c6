package service

// Pricing holds the shipping rules applied to carts and orders.
type Pricing struct {
	ShippingFee           int64
	FreeShippingThreshold int64 // 0 disables free shipping
}

// ShippingFeeFor charges one flat fee per order when anything ships.
func (p Pricing) ShippingFeeFor(subtotal int64, hasPhysical bool) int64 {
	if !hasPhysical {
		return 0
	}
	if p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFee
}
