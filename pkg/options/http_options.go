package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions configures the REST API server.
type HttpOptions struct {
	Network string `json:"network" mapstructure:"network"`
	Addr    string `json:"addr" mapstructure:"addr"`

	// Timeout bounds reading a request and writing its response.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// ShutdownTimeout bounds the graceful drain of in-flight requests.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`

	// MaxBodyBytes caps a JSON request body.
	MaxBodyBytes int64 `json:"max-body-bytes" mapstructure:"max-body-bytes"`

	// ArchiveLinkExpiry is the lifetime of presigned archive download links.
	ArchiveLinkExpiry time.Duration `json:"archive-link-expiry" mapstructure:"archive-link-expiry"`
}

// NewHttpOptions creates a HttpOptions object with default parameters.
func NewHttpOptions() *HttpOptions {
	return &HttpOptions{
		Network:           "tcp",
		Addr:              "0.0.0.0:8080",
		Timeout:           30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxBodyBytes:      1 << 20,
		ArchiveLinkExpiry: 15 * time.Minute,
	}
}

// Validate checks the REST server settings.
func (o *HttpOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}
	if o.Timeout <= 0 {
		errors = append(errors, fmt.Errorf("--http.timeout must be positive, got %s", o.Timeout))
	}
	if o.MaxBodyBytes <= 0 {
		errors = append(errors, fmt.Errorf("--http.max-body-bytes must be positive, got %d", o.MaxBodyBytes))
	}
	if o.ArchiveLinkExpiry < time.Second || o.ArchiveLinkExpiry > 7*24*time.Hour {
		errors = append(errors, fmt.Errorf("--http.archive-link-expiry must be between 1s and 7 days, got %s", o.ArchiveLinkExpiry))
	}

	return errors
}

// AddFlags adds flags related to the REST server to the specified FlagSet.
func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Network, "http.network", o.Network, "Specify the network for the HTTP server.")
	fs.StringVar(&o.Addr, "http.addr", o.Addr, "Specify the HTTP server bind address and port.")
	fs.DurationVar(&o.Timeout, "http.timeout", o.Timeout, "Timeout for reading a request and writing its response.")
	fs.DurationVar(&o.ShutdownTimeout, "http.shutdown-timeout", o.ShutdownTimeout, "Time allowed for in-flight requests to finish on shutdown.")
	fs.Int64Var(&o.MaxBodyBytes, "http.max-body-bytes", o.MaxBodyBytes, "Largest accepted request body, in bytes.")
	fs.DurationVar(&o.ArchiveLinkExpiry, "http.archive-link-expiry", o.ArchiveLinkExpiry, "Lifetime of archive download links.")
}
