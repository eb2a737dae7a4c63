// Package codec 提供幂等记录的序列化器。
//
// 完成记录与缓存响应在写入存储前都会经过序列化器编码，
// 读取时再解码。默认使用 JSON，也可选择 MessagePack。
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnsupportedCodec 不支持的序列化器类型
var ErrUnsupportedCodec = fmt.Errorf("unsupported codec type")

// Codec 定义序列化接口
type Codec interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
	Name() string
}

// JSONCodec JSON 序列化器
type JSONCodec struct{}

func (JSONCodec) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (JSONCodec) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

func (JSONCodec) Name() string { return "json" }

// MsgpackCodec MessagePack 序列化器
//
// MessagePack 比 JSON 序列化更快，数据体积小 20-30%，
// 适合高频任务的完成记录。
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (MsgpackCodec) Unmarshal(data []byte, dest any) error {
	return msgpack.Unmarshal(data, dest)
}

func (MsgpackCodec) Name() string { return "msgpack" }

// New 创建序列化器
//
// 支持的类型:
//   - "json": 标准库 JSON 序列化，兼容性最好（默认）
//   - "msgpack": MessagePack 二进制序列化，性能更优
func New(codecType string) (Codec, error) {
	switch codecType {
	case "json", "":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}
