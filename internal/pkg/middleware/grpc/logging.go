package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/autopeer-io/missioncontrol/pkg/log"
)

// UnaryServerLoggingInterceptor logs every call with its status code and latency.
func UnaryServerLoggingInterceptor(logger log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		kvs := []any{"method", info.FullMethod, "code", code.String(), "latency", time.Since(start)}
		if err != nil {
			logger.Error(err, "gRPC call failed", kvs...)
		} else {
			logger.Debug("gRPC call", kvs...)
		}
		return resp, err
	}
}
