package audit

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// GameLog records game events to Kafka, one topic per room, for offline
// inspection of a session. It is strictly an audit trail: writes are
// async and failures never surface to gameplay.
type GameLog struct {
	broker  string
	mu      sync.Mutex
	writers map[string]*kafka.Writer // room -> writer
}

// New returns a disabled log when broker is empty.
func New(broker string) *GameLog {
	return &GameLog{broker: broker, writers: make(map[string]*kafka.Writer)}
}

func (g *GameLog) Enabled() bool {
	return g != nil && g.broker != ""
}

// Record appends one event line to the room's topic. Fire and forget.
func (g *GameLog) Record(room, event, detail string) {
	if !g.Enabled() || room == "" {
		return
	}

	w := g.writerFor(room)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event),
		Value: []byte(detail),
	})
	if err != nil {
		zap.L().Debug("audit.write_failed", zap.String("room", room), zap.Error(err))
	}
}

func (g *GameLog) writerFor(room string) *kafka.Writer {
	g.mu.Lock()
	defer g.mu.Unlock()

	if w, ok := g.writers[room]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(g.broker),
		Topic:                  room,
		RequiredAcks:           kafka.RequireAll,
		Async:                  true,
		BatchSize:              1,
		AllowAutoTopicCreation: true,
	}
	g.writers[room] = w
	return w
}

func (g *GameLog) Close() {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for room, w := range g.writers {
		if err := w.Close(); err != nil {
			zap.L().Debug("audit.close_failed", zap.String("room", room), zap.Error(err))
		}
		delete(g.writers, room)
	}
}
