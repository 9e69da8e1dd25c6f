package services

import (
	"context"
	"sync"
	"time"

	"matchops-service/logger"
	"matchops-service/pkg/common"
	"matchops-service/pkg/models"
)

// SyncScheduler 同步调度器
// 周期性为每场开启同步的未结算比赛触发一次拉取回放;
// 每场比赛的回放独立、可取消,互相不阻塞。
// 关闭 sync_enabled 后调用 Cancel 可中止进行中的回放,
// 已提交的事件保留(账本只进不退,靠对账保持一致)。
type SyncScheduler struct {
	matches  *MatchStore
	adapter  *SyncAdapter
	interval time.Duration
	retries  int

	mu      sync.Mutex
	running map[int64]context.CancelFunc
	done    chan struct{}
}

// NewSyncScheduler 创建调度器
func NewSyncScheduler(matches *MatchStore, adapter *SyncAdapter, interval time.Duration, retries int) *SyncScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if retries <= 0 {
		retries = 3
	}
	return &SyncScheduler{
		matches:  matches,
		adapter:  adapter,
		interval: interval,
		retries:  retries,
		running:  make(map[int64]context.CancelFunc),
		done:     make(chan struct{}),
	}
}

// Run 调度循环,阻塞直到 Stop
func (s *SyncScheduler) Run() {
	logger.Printf("[Sync] Scheduler started (interval %v)", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// 启动时立刻跑一轮
	s.tick()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// Stop 停止调度并取消所有进行中的回放
func (s *SyncScheduler) Stop() {
	close(s.done)

	s.mu.Lock()
	for _, cancel := range s.running {
		cancel()
	}
	s.mu.Unlock()
}

// Cancel 取消指定比赛进行中的回放(关闭 sync_enabled 时由 web 层调用)
func (s *SyncScheduler) Cancel(matchID int64) {
	s.mu.Lock()
	cancel, ok := s.running[matchID]
	s.mu.Unlock()
	if ok {
		logger.Printf("[Sync] Cancelling in-flight sync pass for match %d", matchID)
		cancel()
	}
}

// tick 一轮调度:找出待同步的比赛并各自起一次回放
func (s *SyncScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	enabled := true
	matches, err := s.matches.List(ctx, MatchFilter{SyncEnabled: &enabled, Limit: 500})
	if err != nil {
		logger.Errorf("[Sync] Failed to list sync-enabled matches: %v", err)
		return
	}

	for _, match := range matches {
		if !models.AllowsMutation(match.Status) {
			continue
		}
		s.launch(match)
	}
}

// launch 为一场比赛起一次回放,已在跑则跳过
func (s *SyncScheduler) launch(match *models.Match) {
	s.mu.Lock()
	if _, ok := s.running[match.ID]; ok {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.running[match.ID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.running, match.ID)
			s.mu.Unlock()
		}()
		s.runWithRetry(ctx, match)
	}()
}

// runWithRetry 带退避重试的单场回放
// 只有暂时性故障(数据源不可达/超时)才重试,
// 其余错误留到下一轮调度
func (s *SyncScheduler) runWithRetry(ctx context.Context, match *models.Match) {
	backoff := 2 * time.Second
	for attempt := 1; attempt <= s.retries; attempt++ {
		passCtx, cancel := context.WithTimeout(ctx, s.interval)
		_, err := s.adapter.RunPass(passCtx, match)
		cancel()

		if err == nil {
			return
		}
		if !common.IsCode(err, common.CodeSyncTransient) {
			logger.Errorf("[Sync] ❌ Sync pass failed for match %d: %v", match.ID, err)
			return
		}

		logger.Errorf("[Sync] ⚠️  Feed transient error for match %d (attempt %d/%d): %v",
			match.ID, attempt, s.retries, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
