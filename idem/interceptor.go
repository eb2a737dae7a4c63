package idem

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/yunhan/payidem/errx"
	"github.com/yunhan/payidem/zlog"
)

// gRPC metadata 默认键名
const (
	defaultMetadataKey = "x-idempotency-key"
	defaultIdentityKey = "x-employee-id"
)

// maxGRPCTokenLength gRPC 令牌最大长度，与 HTTP 侧默认一致
const maxGRPCTokenLength = 255

// UnaryServerInterceptor 创建 gRPC 一元服务端拦截器
//
// 语义与 GinMiddleware 一致：令牌缺失时放行，超长拒绝
// （InvalidArgument），缓存键按调用方身份与方法隔离，只缓存成功
// 响应，存储故障 fail-open。响应通过 anypb 包装缓存，因此只支持
// proto.Message 返回值；非 proto 响应不缓存。
func (g *guard) UnaryServerInterceptor(opts ...InterceptorOption) grpc.UnaryServerInterceptor {
	opt := interceptorOptions{
		metadataKey: defaultMetadataKey,
		identityKey: defaultIdentityKey,
		ttl:         g.cfg.DefaultTTL,
	}
	for _, o := range opts {
		o(&opt)
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		token := firstMetadataValue(md, opt.metadataKey)
		if token == "" {
			return handler(ctx, req)
		}
		if len(token) > maxGRPCTokenLength {
			return nil, status.Error(codes.InvalidArgument, CodeInvalidToken+": idempotency key too long")
		}

		user := firstMetadataValue(md, opt.identityKey)
		if user == "" {
			user = anonymousUser
		}
		key := requestNamespace + ":" + info.FullMethod + ":" + user + ":" + hashToken(token)

		if msg, ok := g.lookupProtoResponse(ctx, key, info.FullMethod); ok {
			if g.logger != nil {
				g.logger.Debug("cached gRPC response hit",
					zlog.String("method", info.FullMethod))
			}
			return msg, nil
		}

		result, err := handler(ctx, req)
		if err != nil {
			// 失败不缓存，同一令牌重试会重新执行
			return nil, err
		}

		g.cacheProtoResponse(ctx, key, info.FullMethod, result, opt.ttl)
		return result, nil
	}
}

func firstMetadataValue(md metadata.MD, key string) string {
	vals := md.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// lookupProtoResponse 读取缓存的 proto 响应；任何失败按未命中处理
func (g *guard) lookupProtoResponse(ctx context.Context, key, method string) (proto.Message, bool) {
	data, err := g.store.Get(ctx, key)
	if err != nil {
		if !errx.Is(err, ErrNotFound) {
			g.metrics.observeStoreError("get")
			if g.logger != nil {
				g.logger.Error("cached gRPC response lookup failed, treating as miss",
					zlog.Error(err), zlog.String("method", method))
			}
		}
		return nil, false
	}

	var anyMsg anypb.Any
	if err := proto.Unmarshal(data, &anyMsg); err != nil {
		if g.logger != nil {
			g.logger.Error("corrupt cached gRPC response, treating as miss",
				zlog.Error(err), zlog.String("method", method))
		}
		return nil, false
	}
	msg, err := anypb.UnmarshalNew(&anyMsg, proto.UnmarshalOptions{})
	if err != nil {
		if g.logger != nil {
			g.logger.Error("failed to decode cached gRPC response, treating as miss",
				zlog.Error(err), zlog.String("method", method))
		}
		return nil, false
	}
	return msg, true
}

// cacheProtoResponse 缓存成功的 proto 响应；任何失败只记日志
func (g *guard) cacheProtoResponse(ctx context.Context, key, method string, result any, ttl time.Duration) {
	msg, ok := result.(proto.Message)
	if !ok || msg == nil {
		if g.logger != nil {
			g.logger.Warn("skip caching non-proto gRPC response",
				zlog.String("method", method))
		}
		return
	}

	anyMsg, err := anypb.New(msg)
	if err != nil {
		if g.logger != nil {
			g.logger.Error("failed to wrap gRPC response",
				zlog.Error(err), zlog.String("method", method))
		}
		return
	}
	data, err := proto.Marshal(anyMsg)
	if err != nil {
		if g.logger != nil {
			g.logger.Error("failed to encode gRPC response",
				zlog.Error(err), zlog.String("method", method))
		}
		return
	}

	if err := g.store.Set(ctx, key, data, ttl); err != nil {
		g.metrics.observeStoreError("set")
		if g.logger != nil {
			g.logger.Error("failed to cache gRPC response, a future duplicate is possible",
				zlog.Error(err), zlog.String("method", method))
		}
	}
}
