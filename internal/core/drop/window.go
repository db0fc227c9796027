package drop

// Sale-window evaluation. Pure predicates over the sales configuration
// and an externally supplied clock reading; windows may overlap or both
// be closed, and the purchase paths decide which one they require.

// windowActive reports start <= now < end.
func windowActive(start, end, now int64) bool {
	return now >= start && now < end
}

func (e *Engine) presaleActive(now int64) bool {
	return windowActive(e.sales.PresaleStart, e.sales.PresaleEnd, now)
}

func (e *Engine) publicSaleActive(now int64) bool {
	return windowActive(e.sales.PublicSaleStart, e.sales.PublicSaleEnd, now)
}
