package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

// MediaFailureMessage 一次被吞掉的媒体托管调用失败，consumer只落库不重试
type MediaFailureMessage struct {
	EventID    string    `json:"event_id"`
	Op         string    `json:"op"` // delete_video / upload_thumbnail / rollback_upload
	FileID     string    `json:"file_id,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	VideoID    uint64    `json:"video_id,omitempty"`
	UserID     uint64    `json:"user_id,omitempty"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher struct {
	conn *amqp.Connection
}

// NewPublisher 创建发布者前先确保队列存在
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	if err := DeclareQueue(conn, QueueMediaFailure); err != nil {
		return nil, errors.Wrap(err, "声明媒体失败队列失败")
	}
	return &Publisher{conn: conn}, nil
}

// PublishMediaFailure 每条消息单独开一个channel，发完即关
func (p *Publisher) PublishMediaFailure(ctx context.Context, msg MediaFailureMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "媒体失败消息序列化失败")
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "打开Channel失败")
	}
	defer ch.Close()

	err = ch.Publish(
		"",                // 默认交换机
		QueueMediaFailure, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.EventID,
			Timestamp:    msg.OccurredAt,
			Body:         body,
		})
	return errors.Wrapf(err, "发布媒体失败消息失败: %s", msg.EventID)
}
