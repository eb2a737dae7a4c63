package idem

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// digestLen 摘要截断长度（16 个十六进制字符）。
//
// 截断后的碰撞概率对正确性无关紧要：碰撞只会导致一次不必要的
// 跳过，永远不会产生错误的副作用。这里明确接受"不同操作在同一
// 派生键下被当作重复"的微小风险，换取更短的存储键。
const digestLen = 16

// DeriveKey 由（命名空间, 操作名, 位置参数, 关键字参数）派生确定性幂等键。
//
// 规则：
//   - args 按顺序、kwargs 按键名字典序做规范化编码，保证语义相同的
//     调用编码一致（与 kwargs 的插入顺序无关）
//   - 对编码结果计算 SHA-256 并截断
//   - 键形如 "{namespace}:{name}:{hash}"；dateBucketed 为 true 时
//     追加 ":{YYYY-MM-DD}"（UTC 日期），使同一操作每天允许重跑一次
//
// 对无法序列化的参数回退到其字符串表示，因此永远不会失败。
func DeriveKey(namespace, name string, args []any, kwargs map[string]any, dateBucketed bool) string {
	digest := argsDigest(args, kwargs)

	var b strings.Builder
	b.WriteString(namespace)
	b.WriteByte(':')
	b.WriteString(name)
	b.WriteByte(':')
	b.WriteString(digest)
	if dateBucketed {
		b.WriteByte(':')
		b.WriteString(time.Now().UTC().Format("2006-01-02"))
	}
	return b.String()
}

// argsDigest 计算参数的截断摘要
func argsDigest(args []any, kwargs map[string]any) string {
	h := sha256.New()
	h.Write([]byte(canonicalArgs(args)))
	h.Write([]byte{'|'})
	h.Write([]byte(canonicalKwargs(kwargs)))
	return hex.EncodeToString(h.Sum(nil))[:digestLen]
}

// canonicalArgs 将位置参数编码为有序序列
func canonicalArgs(args []any) string {
	if len(args) == 0 {
		return "[]"
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = canonicalValue(a)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// canonicalKwargs 将关键字参数按键名排序后编码
func canonicalKwargs(kwargs map[string]any) string {
	if len(kwargs) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+canonicalValue(kwargs[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// canonicalValue 单个值的稳定文本编码。
// encoding/json 对 map 键排序，嵌套结构同样稳定；
// 无法编码的值（函数、channel 等）回退到字符串表示。
func canonicalValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// hashToken 对客户端令牌取截断摘要，避免把原始令牌写进存储键
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:digestLen]
}

// NewToken 生成一个客户端幂等令牌（UUID v4）。
// 供调用方在发起请求前生成并随重试复用。
func NewToken() string {
	return uuid.NewString()
}
