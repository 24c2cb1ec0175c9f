package consumer

import (
	"context"
	"errors"

	"go-ems/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafkago.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// errUndecodable marks a message that will never succeed; it is committed
// and skipped.
var errUndecodable = errors.New("undecodable message")

type handleFunc func(ctx context.Context, msg kafkago.Message) error

// consume fetches until ctx is done. A message is committed only after
// handle succeeds or reports errUndecodable.
func consume(ctx context.Context, reader MessageReader, log *zap.Logger, handle handleFunc) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopped")
				return
			}
			log.Error("fetch message failed", zap.Error(err))
			continue
		}

		msgCtx := ctx
		if rid := header(msg, "request_id"); rid != "" {
			msgCtx = contextutil.WithRequestID(ctx, rid)
		}

		if err := handle(msgCtx, msg); err != nil {
			if errors.Is(err, errUndecodable) {
				log.Error("skipping message",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}
			log.Error("handle message failed",
				zap.String("topic", msg.Topic),
				zap.String("key", string(msg.Key)),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message failed", zap.Error(err))
		}
	}
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
