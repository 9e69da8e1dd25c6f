package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"matchops-service/pkg/common"
)

// FeedClient 数据源拉模式客户端
// 快照接口返回该场比赛当前的阵容和事件全量,
// 标识已由数据源侧解析为内部 ID
type FeedClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewFeedClient 创建数据源客户端
func NewFeedClient(baseURL, token string, timeout time.Duration) *FeedClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FeedClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// feedPayload 快照接口的响应体
type feedPayload struct {
	MatchID int64             `json:"match_id"`
	Status  string            `json:"status"`
	Lineup  []FeedLineupEntry `json:"lineup"`
	Events  []FeedEvent       `json:"events"`
}

// FetchMatchFeed 拉取一场比赛的快照
// 网络错误/超时/5xx 视为暂时性故障(SYNC_TRANSIENT),
// 由调度器带退避重试;本次什么都不会落库
func (c *FeedClient) FetchMatchFeed(ctx context.Context, matchID int64) (*FeedSnapshot, error) {
	url := fmt.Sprintf("%s/matches/%d/feed", c.baseURL, matchID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-access-token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.NewSyncTransientError("feed unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewSyncTransientError("failed to read feed response", err)
	}

	if resp.StatusCode >= 500 {
		return nil, common.NewSyncTransientError(
			fmt.Sprintf("feed returned status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, common.NewAppError(common.CodeInternal,
			fmt.Sprintf("feed returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload feedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse feed response: %w", err)
	}

	return &FeedSnapshot{
		MatchID: matchID,
		Status:  payload.Status,
		Lineup:  payload.Lineup,
		Events:  payload.Events,
	}, nil
}
