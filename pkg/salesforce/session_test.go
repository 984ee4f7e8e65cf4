package salesforce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsConfigured(t *testing.T) {
	assert.False(t, Credentials{}.Configured())
	assert.True(t, Credentials{AccessToken: "tok"}.Configured())
	assert.True(t, Credentials{Username: "u", Password: "p"}.Configured())
	assert.True(t, Credentials{Username: "u", ClientID: "id", PrivateKeyPEM: "pem"}.Configured())
	assert.False(t, Credentials{ClientID: "id"}.Configured())
}

func TestConnectRequiresCredentials(t *testing.T) {
	_, err := Connect(Credentials{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials not configured")
}

func TestLoadPrivateKeyMissingFile(t *testing.T) {
	var c Credentials
	require.NoError(t, c.LoadPrivateKey(""))
	assert.Error(t, c.LoadPrivateKey("/does/not/exist.pem"))
}

func TestSessionReconnectsAfterMaxAge(t *testing.T) {
	now := time.Now()
	var connects int
	s := NewSession(Credentials{AccessToken: "tok"}, time.Hour)
	s.now = func() time.Time { return now }
	s.connect = func(Credentials, ...ClientOption) (Client, error) {
		connects++
		return &mockClient{}, nil
	}

	ctx := context.Background()
	require.NoError(t, s.Query(ctx, "SELECT Id FROM Account", nil))
	require.NoError(t, s.Query(ctx, "SELECT Id FROM Account", nil))
	assert.Equal(t, 1, connects)
	assert.Equal(t, now, s.ConnectedAt())

	now = now.Add(61 * time.Minute)
	_, err := s.DescribeSObject(ctx, "Account")
	require.NoError(t, err)
	assert.Equal(t, 2, connects)

	s.Invalidate()
	assert.True(t, s.ConnectedAt().IsZero())
	require.NoError(t, s.Query(ctx, "SELECT Id FROM Account", nil))
	assert.Equal(t, 3, connects)
}

func TestSessionConnectError(t *testing.T) {
	s := NewSession(Credentials{AccessToken: "tok"}, 0)
	s.connect = func(Credentials, ...ClientOption) (Client, error) {
		return nil, errors.New("auth failed")
	}

	err := s.Query(context.Background(), "SELECT Id FROM Account", nil)
	require.Error(t, err)
	assert.Equal(t, DefaultSessionMaxAge, s.maxAge)
}
