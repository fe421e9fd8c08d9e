// Package main 数据库初始化：执行迁移并可选创建演示用户
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"serial-story-api/internal/config"
	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting database bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 迁移表结构与约束
	if err := dataLayer.PgClient.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 创建演示用户（需显式提供邮箱与密码）
	email := os.Getenv("BOOTSTRAP_USER_EMAIL")
	password := os.Getenv("BOOTSTRAP_USER_PASSWORD")
	if email == "" || password == "" {
		fmt.Println("BOOTSTRAP_USER_EMAIL / BOOTSTRAP_USER_PASSWORD not set, skipping demo user.")
		fmt.Println("Bootstrap completed successfully.")
		return
	}

	nickname := os.Getenv("BOOTSTRAP_USER_NICKNAME")
	if nickname == "" {
		nickname = "storyteller"
	}

	// 查询与创建放在同一事务内，重复执行 bootstrap 不会产生重复用户
	err = dataLayer.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := dataLayer.UserRepo.GetByEmail(txCtx, email)
		if err != nil {
			return fmt.Errorf("check user existence: %w", err)
		}
		if existing != nil {
			fmt.Printf("User %s already exists.\n", email)
			return nil
		}

		user := entity.NewUser(email, nickname)
		if err := user.SetPassword(password); err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		if err := dataLayer.UserRepo.Create(txCtx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Printf("User %s created with ID: %s\n", email, user.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("failed to bootstrap user: %v", err)
	}

	fmt.Println("Bootstrap completed successfully.")
}
