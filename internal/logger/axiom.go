package logger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
)

const (
	axiomBuffer = 1000
	axiomBatch  = 200
)

type eventSink interface {
	Send(axiom.Event)
}

// levelFilter drops events below min before they reach next. It relies on
// zerolog.LevelWriter so the level does not have to be parsed back out of JSON.
type levelFilter struct {
	min  zerolog.Level
	next *eventWriter
}

func (f *levelFilter) Write(p []byte) (int, error) { return f.next.Write(p) }

func (f *levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < f.min {
		return len(p), nil
	}
	return f.next.Write(p)
}

// eventWriter turns zerolog JSON lines into Axiom events.
type eventWriter struct{ sink eventSink }

func (w *eventWriter) Write(p []byte) (int, error) {
	var ev map[string]any
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = map[string]any{"message": string(p), "level": "info"}
	}
	ev["service"] = Service
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}
	w.sink.Send(axiom.Event(ev))
	return len(p), nil
}

// axiomShipper batches events and ingests them on size or on a timer.
type axiomShipper struct {
	client  *axiom.Client
	dataset string
	events  chan axiom.Event
	stop    context.CancelFunc
	done    sync.WaitGroup
}

func newAxiomShipper(token, orgID, dataset string, every time.Duration) (*axiomShipper, error) {
	if dataset == "" {
		dataset = "dev_" + Service
	}
	opts := []axiom.Option{axiom.SetToken(token)}
	if orgID != "" {
		opts = append(opts, axiom.SetOrganizationID(orgID))
	}
	c, err := axiom.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	if every <= 0 {
		every = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &axiomShipper{client: c, dataset: dataset, events: make(chan axiom.Event, axiomBuffer), stop: cancel}
	s.done.Add(1)
	go s.run(ctx, every)
	return s, nil
}

// Send never blocks; events are dropped when the buffer is full.
func (s *axiomShipper) Send(ev axiom.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *axiomShipper) run(ctx context.Context, every time.Duration) {
	defer s.done.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	batch := make([]axiom.Event, 0, axiomBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		fctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		_, _ = s.client.IngestEvents(fctx, s.dataset, batch)
		cancel()
		batch = batch[:0]
	}
	for {
		select {
		case <-ctx.Done():
			s.drain(&batch, flush)
			flush()
			return
		case <-ticker.C:
			flush()
		case ev := <-s.events:
			batch = append(batch, ev)
			if len(batch) >= axiomBatch {
				flush()
			}
		}
	}
}

// drain moves events still queued in the channel into batch without blocking.
func (s *axiomShipper) drain(batch *[]axiom.Event, flush func()) {
	for {
		select {
		case ev := <-s.events:
			*batch = append(*batch, ev)
			if len(*batch) >= axiomBatch {
				flush()
			}
		default:
			return
		}
	}
}

// Close stops the shipper after a final flush.
func (s *axiomShipper) Close() {
	s.stop()
	s.done.Wait()
}
