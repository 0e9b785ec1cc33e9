package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingAddressValueScan(t *testing.T) {
	addr := ShippingAddress{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Line1:      "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Phone:      "555-0100",
	}

	value, err := addr.Value()
	require.NoError(t, err)

	var decoded ShippingAddress
	require.NoError(t, decoded.Scan([]byte(value.(string))))
	assert.Equal(t, addr, decoded)

	var empty ShippingAddress
	require.NoError(t, empty.Scan(nil))
	assert.True(t, empty.IsZero())

	assert.Error(t, empty.Scan(42))
}

func TestShippingAddressNormalize(t *testing.T) {
	addr := ShippingAddress{FirstName: "  Ada ", City: "\tSpringfield\n"}
	n := addr.Normalize()
	assert.Equal(t, "Ada", n.FirstName)
	assert.Equal(t, "Springfield", n.City)
}
