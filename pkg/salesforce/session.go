package salesforce

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultSessionMaxAge is how long a session is reused before reconnecting.
const DefaultSessionMaxAge = time.Hour

// Credentials selects one of three auth flows: a ready access token, JWT
// bearer (ClientID + key) or username/password with security token.
type Credentials struct {
	LoginURL      string
	Username      string
	Password      string
	SecurityToken string
	ClientID      string
	ClientSecret  string
	PrivateKeyPEM string
	AccessToken   string
}

// LoadPrivateKey reads a PEM key file into PrivateKeyPEM.
func (c *Credentials) LoadPrivateKey(path string) error {
	if path == "" {
		return nil
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "sf: read private key")
	}
	c.PrivateKeyPEM = string(pem)
	return nil
}

// Configured reports whether enough is set to attempt a connection.
func (c Credentials) Configured() bool {
	switch {
	case c.AccessToken != "":
		return true
	case c.ClientID != "" && c.PrivateKeyPEM != "" && c.Username != "":
		return true
	case c.Username != "" && c.Password != "":
		return true
	}
	return false
}

// Connect authenticates and returns a Client.
func Connect(creds Credentials, opts ...ClientOption) (Client, error) {
	if !creds.Configured() {
		return nil, eris.New("sf: credentials not configured")
	}
	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         creds.LoginURL,
		Username:       creds.Username,
		Password:       creds.Password,
		SecurityToken:  creds.SecurityToken,
		ConsumerKey:    creds.ClientID,
		ConsumerSecret: creds.ClientSecret,
		ConsumerRSAPem: creds.PrivateKeyPEM,
		AccessToken:    creds.AccessToken,
	})
	if err != nil {
		return nil, eris.Wrap(err, "sf: init")
	}
	return NewClient(sf, opts...), nil
}

// Session is a Client that connects lazily and reconnects once the
// connection is older than its max age. It owns no background goroutines;
// expiry is checked on each call.
type Session struct {
	creds   Credentials
	opts    []ClientOption
	maxAge  time.Duration
	now     func() time.Time
	connect func(Credentials, ...ClientOption) (Client, error)

	mu          sync.Mutex
	client      Client
	connectedAt time.Time
}

// NewSession creates a session. maxAge <= 0 uses DefaultSessionMaxAge.
func NewSession(creds Credentials, maxAge time.Duration, opts ...ClientOption) *Session {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &Session{
		creds:   creds,
		opts:    opts,
		maxAge:  maxAge,
		now:     time.Now,
		connect: Connect,
	}
}

// ConnectedAt returns when the current connection was made, or the zero time.
func (s *Session) ConnectedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectedAt
}

// Invalidate drops the current connection so the next call reconnects.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.connectedAt = time.Time{}
}

func (s *Session) current() (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.now().Sub(s.connectedAt) < s.maxAge {
		return s.client, nil
	}

	c, err := s.connect(s.creds, s.opts...)
	if err != nil {
		return nil, err
	}
	s.client = c
	s.connectedAt = s.now()
	zap.L().Info("sf: connected", zap.String("login_url", s.creds.LoginURL))
	return c, nil
}

// Query runs soql on the current connection.
func (s *Session) Query(ctx context.Context, soql string, out any) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	return c.Query(ctx, soql, out)
}

// DescribeSObject describes name on the current connection.
func (s *Session) DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error) {
	c, err := s.current()
	if err != nil {
		return nil, err
	}
	return c.DescribeSObject(ctx, name)
}
