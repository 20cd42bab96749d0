package enums

// CatalogEventType enumerates the catalog change notifications that refresh the home snapshot.
type CatalogEventType string

const (
	CatalogEventProductCreated      CatalogEventType = "product.created"
	CatalogEventProductUpdated      CatalogEventType = "product.updated"
	CatalogEventProductDeleted      CatalogEventType = "product.deleted"
	CatalogEventDeliveryZoneUpdated CatalogEventType = "delivery_zone.updated"
	CatalogEventMarketStandUpdated  CatalogEventType = "market_stand.updated"
)

var refreshingCatalogEvents = map[CatalogEventType]struct{}{
	CatalogEventProductCreated:      {},
	CatalogEventProductUpdated:      {},
	CatalogEventProductDeleted:      {},
	CatalogEventDeliveryZoneUpdated: {},
	CatalogEventMarketStandUpdated:  {},
}

// String implements fmt.Stringer.
func (e CatalogEventType) String() string {
	return string(e)
}

// TriggersRefresh reports whether the event invalidates cached listings.
func (e CatalogEventType) TriggersRefresh() bool {
	_, ok := refreshingCatalogEvents[e]
	return ok
}
