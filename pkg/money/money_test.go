package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentsString(t *testing.T) {
	assert.Equal(t, "0.00", Cents(0).String())
	assert.Equal(t, "9.99", Cents(999).String())
	assert.Equal(t, "270.00", Cents(27000).String())
	assert.Equal(t, "-1.05", Cents(-105).String())
}

func TestFromDecimalString(t *testing.T) {
	c, err := FromDecimalString("99.99")
	require.NoError(t, err)
	assert.Equal(t, Cents(9999), c)

	c, err = FromDecimalString("0.125")
	require.NoError(t, err)
	assert.Equal(t, Cents(13), c)

	_, err = FromDecimalString("abc")
	assert.Error(t, err)
}

func TestNewAmount(t *testing.T) {
	a := NewAmount(2000)
	assert.Equal(t, int64(2000), a.Cents)
	assert.Equal(t, "20.00", a.Display)
}
