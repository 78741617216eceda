package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseType(t *testing.T) {
	for _, known := range AllTypes() {
		got, err := ParseType(string(known))
		require.NoError(t, err)
		assert.Equal(t, known, got)
	}

	_, err := ParseType("gadgets")
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = ParseType("")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr error
	}{
		{
			name: "valid product",
			rec:  Record{Type: TypeProducts, Product: &Product{Name: strPtr("Aspirin")}},
		},
		{
			name: "valid sale",
			rec:  Record{Type: TypeSales, Sale: &Sale{}},
		},
		{
			name:    "unknown tag",
			rec:     Record{Type: "gadgets", Product: &Product{}},
			wantErr: ErrUnknownType,
		},
		{
			name:    "no payload",
			rec:     Record{Type: TypeProducts},
			wantErr: ErrEmptyRecord,
		},
		{
			name:    "two payloads",
			rec:     Record{Type: TypeProducts, Product: &Product{}, Customer: &Customer{}},
			wantErr: ErrAmbiguousRecord,
		},
		{
			name:    "payload does not match tag",
			rec:     Record{Type: TypeProducts, Customer: &Customer{}},
			wantErr: ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecord_MetaFollowsTag(t *testing.T) {
	updated := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	rec := Record{
		Type:     TypeCustomers,
		Customer: &Customer{SyncMeta: SyncMeta{LocalID: 7, SyncID: strPtr("sc-7"), UpdatedAt: updated}},
	}

	m := rec.Meta()
	require.NotNil(t, m)
	assert.Equal(t, int64(7), m.LocalID)
	assert.Equal(t, "sc-7", rec.SyncID())
	assert.Equal(t, updated, rec.UpdatedAt())

	// Meta must point into the record so sync_id assignment sticks.
	id := "sc-new"
	m.SyncID = &id
	assert.Equal(t, "sc-new", rec.SyncID())
}

func TestRecord_MetaNilWhenPayloadAbsent(t *testing.T) {
	rec := Record{Type: TypeOrders}

	assert.Nil(t, rec.Meta())
	assert.Empty(t, rec.SyncID())
	assert.True(t, rec.UpdatedAt().IsZero())
}
