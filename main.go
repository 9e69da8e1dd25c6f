package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchops-service/config"
	"matchops-service/database"
	"matchops-service/services"
	"matchops-service/web"
)

func main() {
	log.Println("Starting Match Operations Service...")

	// 加载配置
	cfg := config.Load()

	// 连接数据库
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 运行数据库迁移
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database connected and migrated")

	// 核心服务:锁注册表 → 存储 → 对账引擎 → 账本/阵容/裁判
	locks := services.NewMatchLocks()
	matches := services.NewMatchStore(db, locks)
	reconciler := services.NewScoreReconciler()
	ledger := services.NewEventLedger(db, locks, matches, reconciler)
	referees := services.NewRefereeStore(db, locks, matches)
	syncRuns := services.NewSyncRunStore(db)

	// 花名册协作方(可选)
	var directory services.ParticipantDirectory
	if cfg.RosterBaseURL != "" {
		directory = services.NewRosterClient(cfg.RosterBaseURL, cfg.RosterAccessToken)
		log.Println("Roster eligibility check enabled")
	} else {
		log.Println("⚠️  No roster service configured, lineup eligibility check disabled")
	}
	lineup := services.NewLineupRegistry(db, locks, matches, directory)

	// WebSocket Hub,账本每次变化后推送比分
	wsHub := web.NewHub()
	go wsHub.Run()
	ledger.SetBroadcaster(wsHub)

	// 同步适配器(拉模式,可选)
	var adapter *services.SyncAdapter
	var scheduler *services.SyncScheduler
	if cfg.FeedBaseURL != "" {
		feedClient := services.NewFeedClient(cfg.FeedBaseURL, cfg.FeedAccessToken,
			time.Duration(cfg.FeedTimeoutSeconds)*time.Second)
		adapter = services.NewSyncAdapter(feedClient, lineup, ledger, locks, syncRuns)
		scheduler = services.NewSyncScheduler(matches, adapter,
			time.Duration(cfg.SyncIntervalSeconds)*time.Second, cfg.SyncRetries)
		go scheduler.Run()
		log.Printf("Sync scheduler started (every %ds)", cfg.SyncIntervalSeconds)
	} else {
		log.Println("⚠️  No feed configured, sync adapter disabled")
	}

	// 数据源推送消费者(可选)
	var feedConsumer *services.FeedConsumer
	if cfg.AMQPURL != "" && adapter != nil {
		feedConsumer = services.NewFeedConsumer(cfg.AMQPURL, cfg.AMQPQueue, matches, adapter)
		go func() {
			if err := feedConsumer.Start(); err != nil {
				log.Printf("AMQP consumer error: %v", err)
			}
		}()
		log.Println("AMQP feed consumer started")
	}

	// 启动Web服务器
	server := web.NewServer(cfg, db, wsHub, matches, lineup, ledger, referees, adapter, syncRuns)
	if scheduler != nil {
		server.SetScheduler(scheduler)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Printf("Web server stopped: %v", err)
		}
	}()

	log.Printf("Web server started on port %s", cfg.Port)
	log.Println("Service is running. Press Ctrl+C to stop.")

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down service...")

	// 清理资源
	if scheduler != nil {
		scheduler.Stop()
	}
	if feedConsumer != nil {
		feedConsumer.Stop()
	}
	server.Stop()

	log.Println("Service stopped")
}
