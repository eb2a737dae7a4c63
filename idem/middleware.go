package idem

import (
	"bufio"
	"bytes"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yunhan/payidem/errx"
	"github.com/yunhan/payidem/ident"
	"github.com/yunhan/payidem/zlog"
)

// anonymousUser 无法解析调用方身份时使用的占位标识
const anonymousUser = "anonymous"

// GinMiddleware 创建 Gin 请求幂等中间件
//
// 语义：
//   - 只处理白名单路由上的 POST；其他请求原样放行
//   - 令牌是客户端自愿提供的：缺失时记一条警告后放行，
//     这样新路由可以先保护起来，客户端逐步接入
//   - 令牌超长立即返回 400（INVALID_IDEMPOTENCY_KEY），不碰存储
//   - 缓存键包含路由、调用方身份（或匿名标识）和令牌摘要，
//     不同用户用相同令牌互不可见
//   - 只缓存 2xx 响应；失败的请求用同一令牌重试会重新执行
//   - 任何存储故障都不改变返回给客户端的响应
func (g *guard) GinMiddleware(cfg *MiddlewareConfig, opts ...MiddlewareOption) any {
	if cfg == nil {
		cfg = &MiddlewareConfig{}
	}
	cfg.setDefaults()

	routes := make(map[string]struct{}, len(cfg.Routes))
	for _, r := range cfg.Routes {
		routes[r] = struct{}{}
	}

	opt := middlewareOptions{
		userFunc: func(c *gin.Context) string {
			return ident.EmployeeID(c)
		},
	}
	for _, o := range opts {
		o(&opt)
	}

	ttlSeconds := strconv.Itoa(int(cfg.TTL / time.Second))

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, protected := routes[route]; !protected {
			c.Next()
			return
		}

		token := c.GetHeader(cfg.Header)
		if token == "" {
			if g.logger != nil {
				g.logger.Warn("protected route called without idempotency token",
					zlog.String("route", route))
			}
			c.Next()
			return
		}

		if len(token) > cfg.MaxKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     CodeInvalidToken,
				"message":   "idempotency key exceeds maximum length of " + strconv.Itoa(cfg.MaxKeyLength),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		user := opt.userFunc(c)
		if user == "" {
			user = anonymousUser
		}
		key := requestNamespace + ":" + route + ":" + user + ":" + hashToken(token)

		if resp, ok := g.lookupResponse(c, key, route); ok {
			g.metrics.observeHTTPCache(route, "hit")
			c.Header(HeaderCacheStatus, "hit")
			c.Data(resp.Status, resp.ContentType, resp.Body)
			c.Abort()
			return
		}
		g.metrics.observeHTTPCache(route, "miss")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
			ttlSeconds:     ttlSeconds,
		}
		c.Writer = writer

		c.Next()

		// 只缓存成功响应，失败必须可以用同一令牌重试
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		resp := cachedResponse{
			Status:      status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        append([]byte(nil), writer.body.Bytes()...),
			CachedAt:    time.Now().UTC(),
		}
		data, err := g.codec.Marshal(&resp)
		if err != nil {
			if g.logger != nil {
				g.logger.Error("failed to encode cached response",
					zlog.Error(err), zlog.String("route", route))
			}
			return
		}
		if err := g.store.Set(c.Request.Context(), key, data, cfg.TTL); err != nil {
			g.metrics.observeStoreError("set")
			if g.logger != nil {
				g.logger.Error("failed to cache response, a future duplicate is possible",
					zlog.Error(err), zlog.String("route", route))
			}
		}
	}
}

// lookupResponse 读取并解码缓存响应；未命中、存储故障、记录损坏都按
// 未命中处理（fail-open）
func (g *guard) lookupResponse(c *gin.Context, key, route string) (*cachedResponse, bool) {
	data, err := g.store.Get(c.Request.Context(), key)
	if err != nil {
		if !errx.Is(err, ErrNotFound) {
			g.metrics.observeStoreError("get")
			if g.logger != nil {
				g.logger.Error("cached response lookup failed, treating as miss",
					zlog.Error(err), zlog.String("route", route))
			}
		}
		return nil, false
	}

	var resp cachedResponse
	if err := g.codec.Unmarshal(data, &resp); err != nil {
		if g.logger != nil {
			g.logger.Error("corrupt cached response, treating as miss",
				zlog.Error(err), zlog.String("route", route))
		}
		return nil, false
	}
	return &resp, true
}

// responseWriter 响应写入器包装器，捕获响应体并在写出 2xx 状态前
// 补上新鲜响应的缓存头。非 2xx 响应不会被缓存，也不带任何缓存头。
type responseWriter struct {
	gin.ResponseWriter
	body       *bytes.Buffer
	ttlSeconds string
	marked     bool
}

// markFresh 在首次写出 2xx 响应前设置缓存头。
// 响应头一旦随响应体发出就无法更改，必须在这里而不是 handler 之后设置。
func (w *responseWriter) markFresh(status int) {
	if w.marked || status < 200 || status >= 300 {
		return
	}
	w.marked = true
	w.Header().Set(HeaderCacheStatus, "miss")
	w.Header().Set(HeaderExpiresIn, w.ttlSeconds)
}

// WriteHeader 写入响应状态
func (w *responseWriter) WriteHeader(code int) {
	w.markFresh(code)
	w.ResponseWriter.WriteHeader(code)
}

// Write 写入响应体
func (w *responseWriter) Write(b []byte) (int, error) {
	w.markFresh(w.Status())
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// WriteString 写入字符串响应体
func (w *responseWriter) WriteString(s string) (int, error) {
	w.markFresh(w.Status())
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Flush 刷新响应
func (w *responseWriter) Flush() {
	w.ResponseWriter.Flush()
}

// Hijack 劫持连接
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}
