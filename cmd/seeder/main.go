// cmd/seeder/main.go

package main

import (
	"Orion_Tube/internal/config"
	"Orion_Tube/internal/data"
	"Orion_Tube/internal/database"
	"Orion_Tube/internal/model"
	"Orion_Tube/internal/repository"
	"Orion_Tube/internal/service"
	"Orion_Tube/pkg/auth"
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/go-faker/faker/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	userCount  = 50
	videoCount = 200
	voteCount  = 1000
	tokenCount = 3
)

func main() {
	fmt.Println("🚀 开始填充测试数据...")

	// --- 1. 连接数据库，配置和server共用 ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("❌ 无法连接到数据库: %v", err)
	}
	fmt.Println("✅ 数据库连接成功!")

	// --- 2. 清理旧数据，注意：这将删除所有数据！ ---
	fmt.Println("🧹 正在清理旧数据...")
	if err := db.Migrator().DropTable(&model.VideoVote{}, &model.MediaFailure{}, &model.Video{}, &model.User{}); err != nil {
		log.Fatalf("❌ 删除旧表失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ 数据库迁移失败: %v", err)
	}
	fmt.Println("✅ 数据库迁移成功!")

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- 3. 创建用户，默认密码都是 "password" ---
	fmt.Println("👥 正在创建用户...")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ 密码加密失败: %v", err)
	}
	userRepo := repository.NewUserRepository(db)
	var users []model.User
	for i := 0; i < userCount; i++ {
		// faker生成的用户名可能重复，加上序号
		user := model.User{
			Username: fmt.Sprintf("%s%d", faker.Username(), i),
			Password: string(hashedPassword),
		}
		if err := userRepo.Create(ctx, &user); err != nil {
			log.Fatalf("❌ 创建用户失败: %v", err)
		}
		users = append(users, user)
	}
	fmt.Printf("✅ 成功创建 %d 个用户!\n", len(users))

	// --- 4. 创建视频，媒体地址用占位符，不上传真实文件 ---
	fmt.Println("🎬 正在创建视频...")
	videoRepo := repository.NewVideoRepository(db, nil)
	var videos []model.Video
	for i := 0; i < videoCount; i++ {
		title := faker.Sentence()
		if len(title) > model.TitleMaxLength {
			title = title[:model.TitleMaxLength]
		}
		video := model.Video{
			UserID:       users[rng.Intn(len(users))].ID,
			Title:        title,
			Description:  faker.Paragraph(),
			FileID:       fmt.Sprintf("videos/seed-%d/video.mp4", i),
			VideoURL:     "https://test.com/video.mp4",
			ThumbnailURL: "https://test.com/cover.jpg",
		}
		if err := videoRepo.Create(ctx, &video); err != nil {
			log.Fatalf("❌ 创建视频失败: %v", err)
		}
		videos = append(videos, video)
	}
	fmt.Printf("✅ 成功创建 %d 个视频!\n", len(videos))

	// --- 5. 随机投票，走VoteService保证likes/dislikes和投票记录一致 ---
	fmt.Println("👍 正在创建随机投票...")
	voteRepo := repository.NewVoteRepository(db)
	voteService := service.NewVoteService(data.NewUnitOfWork(db, videoRepo, voteRepo), videoRepo)
	directions := []string{model.VoteLike.String(), model.VoteDislike.String()}
	for i := 0; i < voteCount; i++ {
		user := users[rng.Intn(len(users))]
		video := videos[rng.Intn(len(videos))]
		if _, err := voteService.Vote(ctx, user.ID, video.ID, directions[rng.Intn(2)]); err != nil {
			log.Fatalf("❌ 投票失败: %v", err)
		}
	}
	fmt.Printf("✅ 成功执行 %d 次随机投票!\n", voteCount)

	// --- 6. 打印几个开发用的token ---
	for _, user := range users[:tokenCount] {
		token, err := auth.IssueToken([]byte(cfg.JWTSecretKey), user.ID, user.Username, 24*time.Hour)
		if err != nil {
			log.Fatalf("❌ 签发token失败: %v", err)
		}
		fmt.Printf("🔑 %s: %s\n", user.Username, token)
	}

	fmt.Println("🎉🎉🎉 所有测试数据填充完毕! 🎉🎉🎉")
}
