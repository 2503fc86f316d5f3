package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"xdao.co/sealkit/config"
	"xdao.co/sealkit/storage"
	"xdao.co/sealkit/storage/grpccas"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "x-request-id"

func newServer(cas storage.CAS, dc config.DaemonConfig, log zerolog.Logger) *grpc.Server {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(accessLog(log))}
	if dc.MaxMsgBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(dc.MaxMsgBytes), grpc.MaxSendMsgSize(dc.MaxMsgBytes))
	}
	s := grpc.NewServer(opts...)
	grpccas.RegisterEnvelopeStoreServer(s, &grpccas.Server{CAS: cas, EnvelopesOnly: dc.EnvelopesOnly})
	return s
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

// accessLog logs one line per RPC and attaches a request-scoped logger to ctx.
func accessLog(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := requestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

		reqLog := log.With().Str("request_id", id).Str("method", info.FullMethod).Logger()
		ctx = reqLog.WithContext(ctx)

		start := time.Now()
		resp, err := handler(ctx, req)

		var ev *zerolog.Event
		if err != nil {
			ev = reqLog.Warn().Err(err)
		} else {
			ev = reqLog.Info()
		}
		ev.Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}
