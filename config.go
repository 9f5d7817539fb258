// SPDX-License-Identifier: GPL-3.0-or-later

package resp3

import (
	"crypto/tls"
	"net"
	"strconv"
	"time"
)

// Config holds common configuration for resp3 operations: the ambient
// dependencies every [Transport] and [Session] operation needs.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by [Dial].
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// TLSEngine is used by [HandshakeTLS].
	//
	// Set by [NewConfig] to [TLSEngineStdlib].
	TLSEngine TLSEngine

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		TLSEngine:     TLSEngineStdlib{},
		TimeNow:       time.Now,
	}
}

// Default connection parameters, per the documented Session configuration.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 6379
	DefaultUsername = "default"
	DefaultTimeout  = 3 * time.Second
)

// SessionConfig parameterizes a [Session]'s connection. The zero value is
// not ready to use; construct with [NewSessionConfig].
//
// All fields are safe to modify after construction but before the Session's
// first use. Fields must not be mutated concurrently with Session calls.
type SessionConfig struct {
	// Host is the server hostname or IP address.
	//
	// Set by [NewSessionConfig] to [DefaultHost]. Ignored when Path is set.
	Host string

	// Port is the server TCP port.
	//
	// Set by [NewSessionConfig] to [DefaultPort]. Ignored when Path is set.
	Port int

	// Path, when non-empty, is a Unix-domain socket path. It overrides
	// Host and Port.
	Path string

	// Username is sent with HELLO 3 AUTH when Password is set.
	//
	// Set by [NewSessionConfig] to [DefaultUsername].
	Username string

	// Password, when non-empty, triggers AUTH during the handshake.
	Password string

	// DB, when non-nil, selects a database index with SELECT after the
	// handshake.
	DB *int

	// ConnectTimeout bounds opening the Transport, including any TLS
	// handshake. Zero means no deadline.
	//
	// Set by [NewSessionConfig] to [DefaultTimeout].
	ConnectTimeout time.Duration

	// ReadTimeout bounds the BufferedStream's default (unscoped) reads.
	// Zero means no deadline.
	//
	// Set by [NewSessionConfig] to [DefaultTimeout].
	ReadTimeout time.Duration

	// WriteTimeout bounds the BufferedStream's writes. Zero means no
	// deadline.
	//
	// Set by [NewSessionConfig] to [DefaultTimeout].
	WriteTimeout time.Duration

	// SSL enables TLS over the dialed Transport.
	SSL bool

	// SSLParams, when non-nil, is cloned and the clone is used as the
	// base [*tls.Config] of the TLS handshake; in the clone, ServerName is
	// overwritten with Host and Time with [Config.TimeNow], regardless of
	// what is set here. May be nil.
	SSLParams *tls.Config
}

// NewSessionConfig creates a [*SessionConfig] with sensible defaults:
// localhost:6379, username "default", no password, no db selection, TLS
// disabled, and a 3 second timeout applied uniformly via [SessionConfig.SetTimeout].
func NewSessionConfig() *SessionConfig {
	c := &SessionConfig{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Username: DefaultUsername,
	}
	c.SetTimeout(DefaultTimeout)
	return c
}

// SetTimeout propagates d to ConnectTimeout, ReadTimeout, and WriteTimeout
// uniformly. Call the individual fields afterward to override a single phase.
func (c *SessionConfig) SetTimeout(d time.Duration) {
	c.ConnectTimeout = d
	c.ReadTimeout = d
	c.WriteTimeout = d
}

// network returns the dial network and address implied by this configuration.
func (c *SessionConfig) network() (network, address string) {
	if c.Path != "" {
		return "unix", c.Path
	}
	return "tcp", net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
