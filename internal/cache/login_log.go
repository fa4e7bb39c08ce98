package cache

import (
	"context"
	"encoding/json"
	"sync"

	"teamportal/internal/model"

	"github.com/redis/go-redis/v9"
)

const loginLogKey = "logins"

// LoginLog is the bounded login audit trail, newest entries first
type LoginLog interface {
	Append(ctx context.Context, event *model.LoginEvent) error
	Recent(ctx context.Context, limit int) ([]model.LoginEvent, error)
}

type loginLog struct {
	client *redis.Client
	max    int64
}

// NewLoginLog creates a Redis list backed login log capped at max entries
func NewLoginLog(client *redis.Client, max int) LoginLog {
	return &loginLog{
		client: client,
		max:    int64(max),
	}
}

func (l *loginLog) Append(ctx context.Context, event *model.LoginEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, loginLogKey, data)
	pipe.LTrim(ctx, loginLogKey, 0, l.max-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (l *loginLog) Recent(ctx context.Context, limit int) ([]model.LoginEvent, error) {
	if limit <= 0 {
		return []model.LoginEvent{}, nil
	}
	items, err := l.client.LRange(ctx, loginLogKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	events := make([]model.LoginEvent, 0, len(items))
	for _, item := range items {
		var e model.LoginEvent
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

type memoryLoginLog struct {
	mu     sync.Mutex
	max    int
	events []model.LoginEvent // oldest first
}

// NewMemoryLoginLog keeps the audit trail in process memory
func NewMemoryLoginLog(max int) LoginLog {
	return &memoryLoginLog{max: max}
}

func (l *memoryLoginLog) Append(ctx context.Context, event *model.LoginEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, *event)
	if l.max > 0 && len(l.events) > l.max {
		l.events = append([]model.LoginEvent(nil), l.events[len(l.events)-l.max:]...)
	}
	return nil
}

func (l *memoryLoginLog) Recent(ctx context.Context, limit int) ([]model.LoginEvent, error) {
	if limit <= 0 {
		return []model.LoginEvent{}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.LoginEvent, 0, limit)
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}
