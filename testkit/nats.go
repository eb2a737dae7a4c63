package testkit

import (
	"os"
	"testing"

	"github.com/nats-io/nats.go"
)

// GetNATSURL 返回测试 NATS 地址
// 默认 nats://localhost:4222，可通过 PAYIDEM_TEST_NATS_URL 环境变量覆盖
func GetNATSURL() string {
	if url := os.Getenv("PAYIDEM_TEST_NATS_URL"); url != "" {
		return url
	}
	return nats.DefaultURL
}

// GetNATSConn 获取测试 NATS 连接，连接不上直接跳过测试
// 生命周期由 t.Cleanup 管理
func GetNATSConn(t *testing.T) *nats.Conn {
	nc, err := nats.Connect(GetNATSURL())
	if err != nil {
		t.Skipf("nats not available at %s: %v", GetNATSURL(), err)
	}

	t.Cleanup(func() {
		nc.Close()
	})
	return nc
}
