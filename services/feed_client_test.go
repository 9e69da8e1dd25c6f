package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"matchops-service/pkg/common"
)

func TestFeedClientFetchMatchFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches/42/feed" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-access-token") != "test-token" {
			t.Errorf("Missing access token header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"match_id": 42,
			"status": "live",
			"lineup": [
				{"team_id": 10, "participant_id": 101, "role": "starter", "shirt_number": 9}
			],
			"events": [
				{"uuid": "e-1", "half": "1", "minute": 12, "event_type": "goal",
				 "team_id": 10, "primary_participant_id": 101}
			]
		}`))
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, "test-token", 5*time.Second)
	snapshot, err := client.FetchMatchFeed(context.Background(), 42)
	if err != nil {
		t.Fatalf("Expected fetch to succeed, got %v", err)
	}

	if snapshot.MatchID != 42 {
		t.Errorf("Expected match ID 42, got %d", snapshot.MatchID)
	}
	if snapshot.Status != "live" {
		t.Errorf("Expected status live, got %s", snapshot.Status)
	}
	if len(snapshot.Lineup) != 1 {
		t.Fatalf("Expected 1 lineup row, got %d", len(snapshot.Lineup))
	}
	if snapshot.Lineup[0].ParticipantID != 101 {
		t.Errorf("Expected participant 101, got %d", snapshot.Lineup[0].ParticipantID)
	}
	if snapshot.Lineup[0].ShirtNumber == nil || *snapshot.Lineup[0].ShirtNumber != 9 {
		t.Error("Expected shirt number 9")
	}
	if len(snapshot.Events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(snapshot.Events))
	}
	if snapshot.Events[0].UUID != "e-1" {
		t.Errorf("Expected event uuid e-1, got %s", snapshot.Events[0].UUID)
	}
}

func TestFeedClientServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, "test-token", 5*time.Second)
	_, err := client.FetchMatchFeed(context.Background(), 42)
	if err == nil {
		t.Fatal("Expected fetch to fail")
	}
	if !common.IsCode(err, common.CodeSyncTransient) {
		t.Errorf("Expected SYNC_TRANSIENT for 5xx, got %v", err)
	}
}

func TestFeedClientUnreachableIsTransient(t *testing.T) {
	// 立即关闭的服务器,连接必然失败
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewFeedClient(server.URL, "test-token", time.Second)
	_, err := client.FetchMatchFeed(context.Background(), 42)
	if err == nil {
		t.Fatal("Expected fetch to fail")
	}
	if !common.IsCode(err, common.CodeSyncTransient) {
		t.Errorf("Expected SYNC_TRANSIENT for connection failure, got %v", err)
	}
}

func TestFeedClientClientErrorIsNotTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, "test-token", 5*time.Second)
	_, err := client.FetchMatchFeed(context.Background(), 42)
	if err == nil {
		t.Fatal("Expected fetch to fail")
	}
	if common.IsCode(err, common.CodeSyncTransient) {
		t.Error("Expected 4xx not to be treated as transient")
	}
}
