package entity

import "time"

// Record is the tagged variant that travels through the sync engine: the
// Type field names the entity family and exactly one payload pointer is
// set. Inbound records are validated at the boundary so everything behind
// it can switch exhaustively on Type.
type Record struct {
	Type     Type      `json:"entity_type" enum:"products,customers,suppliers,orders,sales"`
	Product  *Product  `json:"product,omitempty"`
	Customer *Customer `json:"customer,omitempty"`
	Supplier *Supplier `json:"supplier,omitempty"`
	Order    *Order    `json:"order,omitempty"`
	Sale     *Sale     `json:"sale,omitempty"`
}

// Validate checks that the tag is known and that exactly one payload is
// present and agrees with it.
func (r Record) Validate() error {
	if _, err := ParseType(string(r.Type)); err != nil {
		return err
	}

	var set int
	for _, p := range []bool{
		r.Product != nil, r.Customer != nil, r.Supplier != nil, r.Order != nil, r.Sale != nil,
	} {
		if p {
			set++
		}
	}
	if set == 0 {
		return ErrEmptyRecord
	}
	if set > 1 {
		return ErrAmbiguousRecord
	}
	if r.Meta() == nil {
		return ErrTypeMismatch
	}
	return nil
}

// Meta returns the sync metadata of the payload matching the tag, or nil
// when the tagged payload is absent.
func (r Record) Meta() *SyncMeta {
	switch r.Type {
	case TypeProducts:
		if r.Product != nil {
			return &r.Product.SyncMeta
		}
	case TypeCustomers:
		if r.Customer != nil {
			return &r.Customer.SyncMeta
		}
	case TypeSuppliers:
		if r.Supplier != nil {
			return &r.Supplier.SyncMeta
		}
	case TypeOrders:
		if r.Order != nil {
			return &r.Order.SyncMeta
		}
	case TypeSales:
		if r.Sale != nil {
			return &r.Sale.SyncMeta
		}
	}
	return nil
}

// SyncID returns the cross-device identifier, empty when unassigned.
func (r Record) SyncID() string {
	if m := r.Meta(); m != nil && m.SyncID != nil {
		return *m.SyncID
	}
	return ""
}

// UpdatedAt returns the local mutation time of the tagged payload.
func (r Record) UpdatedAt() time.Time {
	if m := r.Meta(); m != nil {
		return m.UpdatedAt
	}
	return time.Time{}
}
