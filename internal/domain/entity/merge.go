package entity

// Overlay applies every field present in `in` on top of the receiver and
// returns the result. Absent (nil) fields in `in` keep the receiver's
// value. Child collections follow the replacement rule: a non-nil slice in
// `in` wins wholesale. Sync metadata is merged the same way, except
// UpdatedAt, where the later timestamp wins.
func (p Product) Overlay(in Product) Product {
	out := p
	out.SyncMeta = p.SyncMeta.overlay(in.SyncMeta)
	overlayPtr(&out.Name, in.Name)
	overlayPtr(&out.Description, in.Description)
	overlayPtr(&out.Barcode, in.Barcode)
	overlayPtr(&out.SKU, in.SKU)
	overlayPtr(&out.Quantity, in.Quantity)
	overlayPtr(&out.MinQuantity, in.MinQuantity)
	overlayPtr(&out.PurchasePrice, in.PurchasePrice)
	overlayPtr(&out.SellingPrice, in.SellingPrice)
	overlayPtr(&out.ExpiryDate, in.ExpiryDate)
	overlayPtr(&out.IsActive, in.IsActive)
	overlayPtr(&out.IsPrescriptionRequired, in.IsPrescriptionRequired)
	return out
}

func (c Customer) Overlay(in Customer) Customer {
	out := c
	out.SyncMeta = c.SyncMeta.overlay(in.SyncMeta)
	overlayPtr(&out.FirstName, in.FirstName)
	overlayPtr(&out.LastName, in.LastName)
	overlayPtr(&out.Email, in.Email)
	overlayPtr(&out.Phone, in.Phone)
	overlayPtr(&out.Address, in.Address)
	overlayPtr(&out.City, in.City)
	overlayPtr(&out.DateOfBirth, in.DateOfBirth)
	overlayPtr(&out.Allergies, in.Allergies)
	overlayPtr(&out.MedicalNotes, in.MedicalNotes)
	overlayPtr(&out.IsActive, in.IsActive)
	return out
}

func (s Supplier) Overlay(in Supplier) Supplier {
	out := s
	out.SyncMeta = s.SyncMeta.overlay(in.SyncMeta)
	overlayPtr(&out.Name, in.Name)
	overlayPtr(&out.ContactName, in.ContactName)
	overlayPtr(&out.Phone, in.Phone)
	overlayPtr(&out.Email, in.Email)
	overlayPtr(&out.Address, in.Address)
	overlayPtr(&out.TaxID, in.TaxID)
	overlayPtr(&out.IsActive, in.IsActive)
	return out
}

func (o Order) Overlay(in Order) Order {
	out := o
	out.SyncMeta = o.SyncMeta.overlay(in.SyncMeta)
	overlayPtr(&out.SupplierID, in.SupplierID)
	overlayPtr(&out.ExpectedDeliveryDate, in.ExpectedDeliveryDate)
	overlayPtr(&out.Status, in.Status)
	overlayPtr(&out.Notes, in.Notes)
	overlayPtr(&out.Tax, in.Tax)
	overlayPtr(&out.ShippingCost, in.ShippingCost)
	overlayPtr(&out.TotalAmount, in.TotalAmount)
	if in.Items != nil {
		out.Items = in.Items
	}
	return out
}

func (s Sale) Overlay(in Sale) Sale {
	out := s
	out.SyncMeta = s.SyncMeta.overlay(in.SyncMeta)
	overlayPtr(&out.SaleNumber, in.SaleNumber)
	overlayPtr(&out.CustomerID, in.CustomerID)
	overlayPtr(&out.TotalAmount, in.TotalAmount)
	overlayPtr(&out.Discount, in.Discount)
	overlayPtr(&out.Tax, in.Tax)
	overlayPtr(&out.FinalAmount, in.FinalAmount)
	overlayPtr(&out.PaymentMethod, in.PaymentMethod)
	overlayPtr(&out.Status, in.Status)
	overlayPtr(&out.Notes, in.Notes)
	if in.Items != nil {
		out.Items = in.Items
	}
	return out
}

// Overlay dispatches to the payload overlay matching the record tag. Both
// records must already be validated and share the same type.
func (r Record) Overlay(in Record) Record {
	out := Record{Type: r.Type}
	switch r.Type {
	case TypeProducts:
		merged := r.Product.Overlay(*in.Product)
		out.Product = &merged
	case TypeCustomers:
		merged := r.Customer.Overlay(*in.Customer)
		out.Customer = &merged
	case TypeSuppliers:
		merged := r.Supplier.Overlay(*in.Supplier)
		out.Supplier = &merged
	case TypeOrders:
		merged := r.Order.Overlay(*in.Order)
		out.Order = &merged
	case TypeSales:
		merged := r.Sale.Overlay(*in.Sale)
		out.Sale = &merged
	}
	return out
}

func (m SyncMeta) overlay(in SyncMeta) SyncMeta {
	out := m
	if in.LocalID != 0 {
		out.LocalID = in.LocalID
	}
	overlayPtr(&out.SyncID, in.SyncID)
	if in.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = in.UpdatedAt
	}
	overlayPtr(&out.LastSyncAt, in.LastSyncAt)
	return out
}

func overlayPtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}
