package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*GrpcOptions)(nil)

// GrpcOptions configures the gRPC health endpoint. It is an unauthenticated, insecure port.
type GrpcOptions struct {
	// Enabled starts the gRPC server alongside the REST server.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	Network string `json:"network" mapstructure:"network"`
	Addr    string `json:"addr" mapstructure:"addr"`

	// Timeout bounds every unary call.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRecvMsgSize caps an inbound message, in bytes.
	MaxRecvMsgSize int `json:"max-recv-msg-size" mapstructure:"max-recv-msg-size"`

	// MaxConnectionIdle closes connections without active calls after this long. Zero keeps them.
	MaxConnectionIdle time.Duration `json:"max-connection-idle" mapstructure:"max-connection-idle"`
}

// NewGrpcOptions creates a GrpcOptions object with default parameters.
func NewGrpcOptions() *GrpcOptions {
	return &GrpcOptions{
		Enabled:           true,
		Network:           "tcp",
		Addr:              "0.0.0.0:8091",
		Timeout:           30 * time.Second,
		MaxRecvMsgSize:    4 << 20,
		MaxConnectionIdle: 5 * time.Minute,
	}
}

// Validate checks the gRPC settings. Nothing is checked while the server is disabled.
func (o *GrpcOptions) Validate() []error {
	var errors []error
	if o == nil || !o.Enabled {
		return errors
	}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}
	if o.Network != "tcp" && o.Network != "tcp4" && o.Network != "tcp6" {
		errors = append(errors, fmt.Errorf("--grpc.network %q is not supported", o.Network))
	}
	if o.Timeout <= 0 {
		errors = append(errors, fmt.Errorf("--grpc.timeout must be positive, got %s", o.Timeout))
	}
	if o.MaxRecvMsgSize <= 0 {
		errors = append(errors, fmt.Errorf("--grpc.max-recv-msg-size must be positive, got %d", o.MaxRecvMsgSize))
	}
	if o.MaxConnectionIdle < 0 {
		errors = append(errors, fmt.Errorf("--grpc.max-connection-idle must not be negative, got %s", o.MaxConnectionIdle))
	}

	return errors
}

// AddFlags adds flags related to the gRPC server to the specified FlagSet.
func (o *GrpcOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "grpc.enabled", o.Enabled, "Serve the gRPC health service.")
	fs.StringVar(&o.Network, "grpc.network", o.Network, "Specify the network for the gRPC server.")
	fs.StringVar(&o.Addr, "grpc.addr", o.Addr, "Specify the gRPC server bind address and port.")
	fs.DurationVar(&o.Timeout, "grpc.timeout", o.Timeout, "Timeout for a single unary call.")
	fs.IntVar(&o.MaxRecvMsgSize, "grpc.max-recv-msg-size", o.MaxRecvMsgSize, "Largest accepted inbound message, in bytes.")
	fs.DurationVar(&o.MaxConnectionIdle, "grpc.max-connection-idle", o.MaxConnectionIdle, "Close connections idle for this long. Zero disables.")
}
