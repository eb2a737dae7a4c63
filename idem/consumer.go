package idem

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yunhan/payidem/zlog"
)

// NatsMsgHandler 包装 NATS 消息处理函数，按消息 ID 去重。
//
// NATS（以及大多数消息队列）只提供 at-least-once 投递，消费端必须
// 自己保证重复投递的消息不重复生效。发布方在 Nats-Msg-Id 头携带
// 业务消息 ID（如一次生物识别打卡事件的事件 ID），本包装器以
// "{subject}:{msg-id}" 作幂等键走 Consume 流程；没有消息 ID 的
// 消息直接放行。
//
// 使用示例：
//
//	nc.Subscribe("attendance.checkin", idem.NatsMsgHandler(guard, logger, 24*time.Hour,
//	    func(msg *nats.Msg) {
//	        // 处理打卡事件
//	    }))
func NatsMsgHandler(g Guard, logger zlog.Logger, ttl time.Duration, next nats.MsgHandler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		id := msg.Header.Get(nats.MsgIdHdr)
		if id == "" {
			next(msg)
			return
		}

		key := msg.Subject + ":" + id
		executed, err := g.Consume(context.Background(), key, ttl, func(ctx context.Context) error {
			next(msg)
			return nil
		})
		if err != nil {
			if logger != nil {
				logger.Error("idempotent consume failed",
					zlog.Error(err), zlog.String("subject", msg.Subject), zlog.String("msg_id", id))
			}
			return
		}
		if !executed && logger != nil {
			logger.Debug("duplicate message skipped",
				zlog.String("subject", msg.Subject), zlog.String("msg_id", id))
		}
	}
}
