package main

import (
	"Orion_Tube/internal/config"
	"Orion_Tube/internal/data"
	"Orion_Tube/internal/database"
	"Orion_Tube/internal/handler"
	"Orion_Tube/internal/media"
	"Orion_Tube/internal/repository"
	"Orion_Tube/internal/router"
	"Orion_Tube/internal/service"
	"Orion_Tube/pkg/logger"
	"Orion_Tube/pkg/rabbitmq"
	"Orion_Tube/pkg/redis"
	"context"
	"log"
	"time"
)

func main() {
	// 加载配置，.env文件可选
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	// 初始化logger
	logger.InitLogger(cfg.LogFile, cfg.LogLevel)

	// 初始化Redis
	redisClient, err := redis.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Log.Fatalf("无法连接到Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Log.Info("Redis连接成功")

	// 初始化RabbitMQ，媒体托管失败事件从这里发出
	rabbitMQConn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Log.Fatalf("无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close() // 确保程序退出时关闭连接
	publisher, err := rabbitmq.NewPublisher(rabbitMQConn)
	if err != nil {
		logger.Log.Fatalf("无法声明媒体失败队列: %v", err)
	}
	logger.Log.Info("RabbitMQ连接成功")

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatalf("无法连接到数据库: %v", err)
	}
	logger.Log.Info("数据库连接成功")
	// db.AutoMigrate(),没有这个表就创建,没有属性列则创建列,没有约束则增加约束;不会主动删除和修改
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatalf("数据库迁移失败: %v", err)
	}
	logger.Log.Info("数据库迁移成功")

	// 初始化媒体托管，bucket不存在就创建
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := media.NewS3Store(ctx, cfg)
	if err == nil {
		err = store.EnsureBucket(ctx)
	}
	cancel()
	if err != nil {
		logger.Log.Fatalf("媒体托管初始化失败: %v", err)
	}
	logger.Log.WithField("bucket", cfg.S3Bucket).Info("媒体托管初始化成功")

	videoRepo := repository.NewVideoRepository(db, redisClient)
	voteRepo := repository.NewVoteRepository(db)

	uow := data.NewUnitOfWork(db, videoRepo, voteRepo)

	videoService := service.NewVideoService(videoRepo, voteRepo, uow, store, publisher, cfg.FeedCacheTTL)
	uploadService := service.NewUploadService(videoRepo, store, publisher)
	voteService := service.NewVoteService(uow, videoRepo)

	videoHandler := handler.NewVideoHandler(videoService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	voteHandler := handler.NewVoteHandler(voteService)

	r := router.SetupRouter(videoHandler, uploadHandler, voteHandler, router.Options{
		JWTSecret:           []byte(cfg.JWTSecretKey),
		UploadRatePerMinute: cfg.UploadRatePerMinute,
		UploadRateBurst:     cfg.UploadRateBurst,
	})
	logger.Log.Printf("服务器将在: %s 启动", cfg.ServerAddr)

	if err := r.Run(cfg.ServerAddr); err != nil {
		logger.Log.Fatalf("服务器启动失败: %v", err)
	}
}
