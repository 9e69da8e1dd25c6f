package main

import (
	"log"

	"matchops-service/config"
	"matchops-service/database"
)

// 独立的迁移入口,供部署流水线在服务启动前执行。
// 服务自身启动时也会跑同一套迁移,语句全部幂等。
func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("✅ All migrations completed")
}
