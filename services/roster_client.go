package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RosterClient 花名册协作方客户端
// 只回答"该参与者是否在该队合格名单内"这一个问题,
// 参与者身份数据归花名册方所有
type RosterClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewRosterClient 创建花名册客户端
func NewRosterClient(baseURL, token string) *RosterClient {
	return &RosterClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IsEligible 查询参与者资格
func (c *RosterClient) IsEligible(ctx context.Context, teamID, participantID int64) (bool, error) {
	url := fmt.Sprintf("%s/teams/%d/participants/%d/eligibility", c.baseURL, teamID, participantID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-access-token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("roster service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read roster response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("roster service returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Eligible bool `json:"eligible"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, fmt.Errorf("failed to parse roster response: %w", err)
	}
	return payload.Eligible, nil
}
