package entity

// Type identifies one syncable entity family. The wire values match the
// table names used by the offline installations.
type Type string

const (
	TypeProducts  Type = "products"
	TypeCustomers Type = "customers"
	TypeSuppliers Type = "suppliers"
	TypeOrders    Type = "orders"
	TypeSales     Type = "sales"
)

// AllTypes returns every known entity type in sync order. Suppliers come
// before orders so an order's supplier reference can resolve on first sync.
func AllTypes() []Type {
	return []Type{TypeProducts, TypeCustomers, TypeSuppliers, TypeOrders, TypeSales}
}

// ParseType validates a wire string against the known entity types.
func ParseType(s string) (Type, error) {
	t := Type(s)
	for _, known := range AllTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", ErrUnknownType
}
