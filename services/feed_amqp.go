package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"matchops-service/logger"
)

// FeedConsumer 数据源推模式消费者
// 数据源把快照推到 AMQP 队列,消息体与拉模式的快照同构,
// 回放路径完全复用同步适配器(同样不绕过校验)
type FeedConsumer struct {
	url     string
	queue   string
	matches *MatchStore
	adapter *SyncAdapter
	conn    *amqp.Connection
	channel *amqp.Channel
	done    chan bool
}

// NewFeedConsumer 创建推模式消费者
func NewFeedConsumer(url, queue string, matches *MatchStore, adapter *SyncAdapter) *FeedConsumer {
	return &FeedConsumer{
		url:     url,
		queue:   queue,
		matches: matches,
		adapter: adapter,
		done:    make(chan bool),
	}
}

// Start 连接并开始消费,掉线后带退避自动重连
func (c *FeedConsumer) Start() error {
	backoff := time.Second
	for {
		err := c.consume()
		if err == nil {
			return nil
		}

		select {
		case <-c.done:
			return nil
		default:
		}

		logger.Errorf("[Feed] ❌ AMQP consumer error: %v, reconnecting in %v", err, backoff)
		select {
		case <-time.After(backoff):
		case <-c.done:
			return nil
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// Stop 停止消费
func (c *FeedConsumer) Stop() {
	close(c.done)
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// consume 一次连接生命周期内的消费循环
func (c *FeedConsumer) consume() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	c.conn = conn

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}
	c.channel = channel

	if err := channel.Qos(50, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	queue, err := channel.QueueDeclare(
		c.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	deliveries, err := channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	logger.Printf("[Feed] Connected to AMQP, consuming queue %s", queue.Name)

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-c.done:
			return nil
		case amqpErr := <-connClosed:
			return fmt.Errorf("connection closed: %v", amqpErr)
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(delivery)
		}
	}
}

// handleDelivery 处理一条推送
// 回放失败不重新入队:快照按 UUID 幂等,下一次推送或
// 定时拉取会补齐缺口,重复投递只会空转
func (c *FeedConsumer) handleDelivery(delivery amqp.Delivery) {
	defer delivery.Ack(false)

	var snapshot FeedSnapshot
	if err := json.Unmarshal(delivery.Body, &snapshot); err != nil {
		logger.Errorf("[Feed] ❌ Failed to parse pushed snapshot: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	match, err := c.matches.Get(ctx, snapshot.MatchID)
	if err != nil {
		logger.Errorf("[Feed] ⚠️  Pushed snapshot for unknown match %d: %v", snapshot.MatchID, err)
		return
	}
	if !match.SyncEnabled {
		logger.Printf("[Feed] Skipping pushed snapshot for match %d (sync disabled)", match.ID)
		return
	}

	if _, err := c.adapter.Apply(ctx, match, &snapshot); err != nil {
		logger.Errorf("[Feed] ❌ Failed to apply pushed snapshot for match %d: %v", match.ID, err)
	}
}
