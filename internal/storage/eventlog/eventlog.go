// Package eventlog persists the events emitted by the drop engine into a
// queryable journal. Two backends exist: sqlite (the default, file or
// in-memory) and postgres for shared deployments. Payloads above a size
// threshold are lz4-compressed before storage.
package eventlog

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
	"github.com/0xHustling/ERC721-Drops/internal/storage/compression"
)

// Record is one journaled event.
type Record struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// Journal stores and queries event records.
type Journal interface {
	Append(ctx context.Context, name string, payload []byte) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	CountByName(ctx context.Context, name string) (int64, error)
	Close() error
}

// compressThreshold is the payload size above which the journal
// compresses before storing.
const compressThreshold = 256

// Sink adapts a Journal to the engine's EventSink. Journal failures are
// logged, never surfaced: the journal is an observer, not a participant,
// in the drop state machine.
type Sink struct {
	journal Journal
}

func NewSink(journal Journal) *Sink {
	return &Sink{journal: journal}
}

func (s *Sink) Publish(ev drop.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("eventlog: failed to marshal %s event: %v", ev.EventName(), err)
		return
	}
	if err := s.journal.Append(context.Background(), ev.EventName(), payload); err != nil {
		log.Printf("eventlog: failed to journal %s event: %v", ev.EventName(), err)
	}
}

// encodePayload compresses large payloads, returning the stored bytes
// and the codec name recorded alongside them.
func encodePayload(payload []byte) ([]byte, string) {
	if len(payload) < compressThreshold {
		return payload, "none"
	}
	lz4 := &compression.LZ4Compressor{}
	compressed, err := lz4.Compress(payload)
	if err != nil {
		return payload, "none"
	}
	return compressed, lz4.Name()
}

func decodePayload(stored []byte, codec string) ([]byte, error) {
	c, err := compression.ByName(codec)
	if err != nil {
		return nil, err
	}
	return c.Decompress(stored)
}
