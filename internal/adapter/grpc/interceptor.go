package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor returns a unary server interceptor that logs every call
// with its method, status code and duration. Failed calls are logged at warn
// level, or error level for internal failures.
func LoggingInterceptor(log *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []any{
			"method", info.FullMethod,
			"code", code.String(),
			"duration", time.Since(start),
		}
		switch code {
		case codes.OK:
			log.Infow("handled request", fields...)
		case codes.Internal, codes.Unknown:
			log.Errorw("request failed", append(fields, "error", err)...)
		default:
			log.Warnw("request rejected", append(fields, "error", err)...)
		}
		return resp, err
	}
}
