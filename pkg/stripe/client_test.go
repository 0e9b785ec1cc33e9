package stripe

import (
	"context"
	"testing"

	"github.com/angelmondragon/fitroom-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientAcceptsMatchingKey(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:   "sk_test_123",
		Env:      "TEST",
		Currency: " EUR ",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
	assert.Equal(t, "eur", client.Currency())
	assert.NotNil(t, client.API())
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	cases := map[string]config.StripeConfig{
		"missing key":   {Env: "test"},
		"unknown env":   {APIKey: "sk_test_123", Env: "staging"},
		"live key test": {APIKey: "sk_live_123", Env: "test"},
		"test key live": {APIKey: "rk_test_123", Env: "live"},
		"zero decimal":  {APIKey: "sk_test_123", Env: "test", Currency: "JPY"},
		"not iso":       {APIKey: "sk_test_123", Env: "test", Currency: "dollars"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewClient(context.Background(), cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestNilClientDefaults(t *testing.T) {
	var client *Client
	assert.Nil(t, client.API())
	assert.Equal(t, "", client.Environment())
	assert.Equal(t, "usd", client.Currency())
}
