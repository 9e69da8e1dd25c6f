package services

import "sync"

// MatchLocks 按比赛维度的互斥锁注册表
// 同一场比赛的操作员编辑和同步回放必须串行(单写者),
// 不同比赛互不影响。锁条目不回收,数量以比赛数为上界。
type MatchLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewMatchLocks 创建锁注册表
func NewMatchLocks() *MatchLocks {
	return &MatchLocks{
		locks: make(map[int64]*sync.Mutex),
	}
}

// Lock 获取指定比赛的互斥锁,返回解锁函数
func (l *MatchLocks) Lock(matchID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[matchID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[matchID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
