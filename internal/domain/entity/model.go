package entity

import "time"

// SyncMeta is the column pair every syncable table carries, plus the
// identifiers used for matching. LocalID is the per-installation integer
// key; SyncID is assigned on first successful sync and never changes.
// Optional payload fields below are pointers: an absent field in an inbound
// record leaves the stored value untouched.
type SyncMeta struct {
	LocalID    int64      `json:"id,omitempty"`
	SyncID     *string    `json:"sync_id,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at,omitzero" format:"date-time"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty" format:"date-time"`
}

type Product struct {
	SyncMeta
	Name                   *string    `json:"name,omitempty"`
	Description            *string    `json:"description,omitempty"`
	Barcode                *string    `json:"barcode,omitempty"`
	SKU                    *string    `json:"sku,omitempty"`
	Quantity               *int       `json:"quantity,omitempty"`
	MinQuantity            *int       `json:"min_quantity,omitempty"`
	PurchasePrice          *float64   `json:"purchase_price,omitempty"`
	SellingPrice           *float64   `json:"selling_price,omitempty"`
	ExpiryDate             *time.Time `json:"expiry_date,omitempty" format:"date-time"`
	IsActive               *bool      `json:"is_active,omitempty"`
	IsPrescriptionRequired *bool      `json:"is_prescription_required,omitempty"`
}

type Customer struct {
	SyncMeta
	FirstName    *string    `json:"first_name,omitempty"`
	LastName     *string    `json:"last_name,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Address      *string    `json:"address,omitempty"`
	City         *string    `json:"city,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty" format:"date-time"`
	Allergies    *string    `json:"allergies,omitempty"`
	MedicalNotes *string    `json:"medical_notes,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

type Supplier struct {
	SyncMeta
	Name        *string `json:"name,omitempty"`
	ContactName *string `json:"contact_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
	Address     *string `json:"address,omitempty"`
	TaxID       *string `json:"tax_id,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Order is a supplier order. Items is a child collection without
// cross-device identity: a non-nil Items slice replaces the stored set
// wholesale, nil leaves it unchanged.
type Order struct {
	SyncMeta
	SupplierID           *int64      `json:"supplier_id,omitempty"`
	ExpectedDeliveryDate *time.Time  `json:"expected_delivery_date,omitempty" format:"date-time"`
	Status               *string     `json:"status,omitempty"`
	Notes                *string     `json:"notes,omitempty"`
	Tax                  *float64    `json:"tax,omitempty"`
	ShippingCost         *float64    `json:"shipping_cost,omitempty"`
	TotalAmount          *float64    `json:"total_amount,omitempty"`
	Items                []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Sale carries its line items the same way Order does.
type Sale struct {
	SyncMeta
	SaleNumber    *string    `json:"sale_number,omitempty"`
	CustomerID    *int64     `json:"customer_id,omitempty"`
	TotalAmount   *float64   `json:"total_amount,omitempty"`
	Discount      *float64   `json:"discount,omitempty"`
	Tax           *float64   `json:"tax,omitempty"`
	FinalAmount   *float64   `json:"final_amount,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	Status        *string    `json:"status,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	Items         []SaleItem `json:"items,omitempty"`
}

type SaleItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}
