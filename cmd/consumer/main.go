package main

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/config"
	"Orion_Tube/internal/database"
	"Orion_Tube/internal/repository"
	"Orion_Tube/internal/service"
	"Orion_Tube/pkg/logger"
	"Orion_Tube/pkg/rabbitmq"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// 消费者进程：连接数据库和RabbitMQ，把媒体托管失败事件落库，留给运维排查或手动清理
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(cfg.LogFile, cfg.LogLevel)

	// 连接数据库
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到数据库: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatalf("消费者数据库迁移失败: %v", err)
	}
	// 连接RabbitMQ
	rabbitMQConn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close()

	failureService := service.NewMediaFailureService(repository.NewMediaFailureRepository(db))
	consumeMediaFailures(rabbitMQConn, failureService)
}

// 媒体失败消息消费者：1、声明队列并通过ch注册消费者 2、持续读取消息 3、反序列化后交给service落库
// 4、坏消息直接丢弃，重复消息视为成功，其它错误重新入队
func consumeMediaFailures(conn *amqp.Connection, svc service.MediaFailureService) {
	if err := rabbitmq.DeclareQueue(conn, rabbitmq.QueueMediaFailure); err != nil {
		logger.Log.Fatalf("无法声明媒体失败队列: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Fatalf("无法打开Channel: %v", err)
	}
	defer ch.Close()

	msgs, err := ch.Consume(
		rabbitmq.QueueMediaFailure, // queue
		"",                         // consumer
		false,                      // auto-ack: 手动确认
		false,                      // exclusive
		false,                      // no-local
		false,                      // no-wait
		nil,                        // args
	)
	if err != nil {
		logger.Log.Fatalf("无法注册媒体失败消费者: %v", err)
	}
	forever := make(chan bool)

	go func() {
		for d := range msgs {
			logCtx := logger.Log.WithField("message_id", d.MessageId).WithField("redelivered", d.Redelivered)

			var msg rabbitmq.MediaFailureMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logCtx.WithError(err).Error("消息JSON解析失败")
				d.Nack(false, false)
				continue
			}
			logCtx = logCtx.WithField("op", msg.Op).WithField("file_id", msg.FileID)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := svc.Record(ctx, msg)
			cancel()

			switch {
			case err == nil:
				logCtx.Info("媒体失败事件已记录")
				d.Ack(false)
			case apperr.Is(err, apperr.KindValidation):
				// 缺字段的消息重试也没用
				logCtx.WithError(err).Error("媒体失败消息不完整，丢弃")
				d.Nack(false, false)
			default:
				logCtx.WithError(err).Error("处理消息失败，将进行重试")
				d.Nack(false, true)
			}
		}
	}()
	logger.Log.Info(" [*] 等待媒体失败消息中. 按 CTRL+C 退出")
	<-forever
}
