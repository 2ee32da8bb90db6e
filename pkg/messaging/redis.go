// Package messaging은 Redis pub/sub 기반 메시지 발행/구독을 제공합니다.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient Redis pub/sub 클라이언트 인터페이스
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan Message, error)
	Close() error
}

// Message 수신 메시지
type Message struct {
	Channel string
	Payload []byte
	Time    time.Time
}

type redisClient struct {
	client *redis.Client
}

// Options는 Redis 연결 설정입니다.
type Options struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// NewClient는 Redis에 연결하고 Ping으로 확인된 *redis.Client를 반환합니다.
// 같은 연결을 분산 락 등 다른 용도와 공유할 때 사용합니다.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis 연결 실패: %w", err)
	}
	return client, nil
}

// NewRedisClient는 기존 *redis.Client를 pub/sub 클라이언트로 감쌉니다.
func NewRedisClient(client *redis.Client) RedisClient {
	return &redisClient{client: client}
}

// Publish는 message를 JSON으로 직렬화하여 발행합니다.
func (r *redisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}

	return r.client.Publish(ctx, channel, payload).Err()
}

// Subscribe는 채널을 구독합니다. ctx가 끝나면 반환된 채널이 닫힙니다.
func (r *redisClient) Subscribe(ctx context.Context, channel string) (<-chan Message, error) {
	pubsub := r.client.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("채널 구독 실패: %w", err)
	}

	messageCh := make(chan Message)
	go func() {
		defer close(messageCh)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case messageCh <- Message{Channel: msg.Channel, Payload: []byte(msg.Payload), Time: time.Now()}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return messageCh, nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
