package ldap

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"time"

	gldap "github.com/go-ldap/ldap/v3"

	"spard/config"
)

// Client wraps an established LDAP connection. Membership sync uses it to
// verify that marketplace-provided usernames exist in the site directory
// before touching sacctmgr associations.
type Client struct {
	Conn         *gldap.Conn
	BaseDN       string
	UsernameAttr string
}

// Close closes the underlying LDAP connection.
func (c *Client) Close() {
	if c != nil && c.Conn != nil {
		c.Conn.Close()
	}
}

// Package-level default client for convenience wiring across handlers.
var defaultClient *Client

// SetDefault sets the package-level default LDAP client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default LDAP client.
func Default() *Client { return defaultClient }

// New creates and binds an LDAP client connection based on the provided config.
// It supports plain LDAP, LDAPS, and STARTTLS, optional custom CAs, and
// connect/read timeouts.
func New(cfg config.LDAP) (*Client, error) {
	tlsCfg, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	scheme := "ldap"
	if cfg.UseTLS {
		scheme = "ldaps"
	}
	addr := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)

	var opts []gldap.DialOpt
	if tlsCfg != nil {
		opts = append(opts, gldap.DialWithTLSConfig(tlsCfg))
	}
	if d := connectDialer(cfg); d != nil {
		opts = append(opts, gldap.DialWithDialer(d))
	}

	conn, err := gldap.DialURL(addr, opts...)
	if err != nil {
		return nil, err
	}

	// STARTTLS upgrade is only meaningful on a plain connection.
	if cfg.StartTLS && !cfg.UseTLS {
		if err := conn.StartTLS(tlsCfg); err != nil {
			conn.Close()
			return nil, err
		}
	}

	if rt := parseDuration(cfg.ReadTimeout); rt > 0 {
		conn.SetTimeout(rt)
	}

	if cfg.BindDN != "" || cfg.BindPassword != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			conn.Close()
			return nil, err
		}
	}

	usernameAttr := cfg.UsernameAttr
	if usernameAttr == "" {
		usernameAttr = "uid"
	}
	return &Client{Conn: conn, BaseDN: cfg.BaseDN, UsernameAttr: usernameAttr}, nil
}

// buildTLSConfig constructs a tls.Config based on config.LDAP.
// Returns nil if no TLS options are needed and UseTLS/StartTLS are false.
func buildTLSConfig(cfg config.LDAP) (*tls.Config, error) {
	needsTLS := cfg.UseTLS || cfg.StartTLS || cfg.InsecureSkipVerify || cfg.RootCAFile != "" || cfg.ServerName != ""
	if !needsTLS {
		return nil, nil
	}

	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // configurable for testing/non-prod
	}
	if cfg.ServerName != "" {
		tlsCfg.ServerName = cfg.ServerName
	}
	if cfg.RootCAFile != "" {
		pem, err := os.ReadFile(cfg.RootCAFile)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("failed to parse root CA file %s", cfg.RootCAFile)
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}

// connectDialer returns a net.Dialer with the configured connect timeout,
// or nil when no timeout is set.
func connectDialer(cfg config.LDAP) *net.Dialer {
	ct := parseDuration(cfg.ConnectTimeout)
	if ct <= 0 {
		return nil
	}
	return &net.Dialer{Timeout: ct}
}

// parseDuration returns 0 on empty or invalid duration strings.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// UserExists searches the directory for an entry whose username attribute
// matches exactly.
func (c *Client) UserExists(username string) (bool, error) {
	if c == nil || c.Conn == nil {
		return false, fmt.Errorf("nil ldap client")
	}
	req := gldap.NewSearchRequest(
		c.BaseDN,
		gldap.ScopeWholeSubtree, gldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(%s=%s)", c.UsernameAttr, gldap.EscapeFilter(username)),
		[]string{c.UsernameAttr},
		nil,
	)
	res, err := c.Conn.Search(req)
	if err != nil {
		if gldap.IsErrorWithCode(err, gldap.LDAPResultSizeLimitExceeded) {
			return true, nil
		}
		return false, err
	}
	return len(res.Entries) > 0, nil
}

// GetUserAttrs fetches all attributes of one user entry, keyed by attribute
// name. Returns nil without error when the user does not exist.
func (c *Client) GetUserAttrs(username string) (map[string][]string, error) {
	if c == nil || c.Conn == nil {
		return nil, fmt.Errorf("nil ldap client")
	}
	req := gldap.NewSearchRequest(
		c.BaseDN,
		gldap.ScopeWholeSubtree, gldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(%s=%s)", c.UsernameAttr, gldap.EscapeFilter(username)),
		nil,
		nil,
	)
	res, err := c.Conn.Search(req)
	if err != nil {
		return nil, err
	}
	if len(res.Entries) == 0 {
		return nil, nil
	}
	attrs := make(map[string][]string, len(res.Entries[0].Attributes))
	for _, a := range res.Entries[0].Attributes {
		attrs[a.Name] = a.Values
	}
	return attrs, nil
}
