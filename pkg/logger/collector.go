package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Publisher ships a batch of aggregated entries somewhere (Kafka in serve
// mode). Optional: without one the collector only keeps a run summary.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval; zero disables the ticker
	CountThreshold int           // max unique pending entries before flush
	Topic          string
	Publisher      Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector de-duplicates warnings and errors by content. Each run keeps
// the full set for its execution record; pending entries are also flushed to
// the Publisher when one is configured.
type LogCollector struct {
	config  *CollectionConfig
	seen    map[string]*AggregatedLogEntry
	pending map[string]*AggregatedLogEntry
	mutex   sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config == nil {
		config = &CollectionConfig{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	collector := &LogCollector{
		config:  config,
		seen:    make(map[string]*AggregatedLogEntry),
		pending: make(map[string]*AggregatedLogEntry),
		ctx:     ctx,
		cancel:  cancel,
	}

	if config.Publisher != nil && config.TimeInterval > 0 {
		collector.wg.Add(1)
		go collector.periodicFlush()
	}

	return collector
}

func (d *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := d.generateKey(level, message, fields, caller)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	entry, exists := d.seen[key]
	if exists {
		entry.Count++
		entry.LastSeen = now
	} else {
		entry = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
		d.seen[key] = entry
	}
	d.pending[key] = entry

	if d.config.CountThreshold > 0 && len(d.pending) >= d.config.CountThreshold {
		d.flushLogs()
	}
}

// Snapshot returns every entry seen so far, oldest first.
func (d *LogCollector) Snapshot() []AggregatedLogEntry {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	out := make([]AggregatedLogEntry, 0, len(d.seen))
	for _, e := range d.seen {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })
	return out
}

// Counts returns total warn and error occurrences.
func (d *LogCollector) Counts() (warns, errs int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for _, e := range d.seen {
		switch e.Level {
		case "warn":
			warns += e.Count
		case "error":
			errs += e.Count
		}
	}
	return warns, errs
}

func (d *LogCollector) generateKey(level, message string, fields map[string]interface{}, caller string) string {
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{
		Level:   level,
		Message: message,
		Fields:  fields,
		Caller:  caller,
	}

	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%x", hash)
}

func (d *LogCollector) periodicFlush() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.mutex.Lock()
			d.flushLogs()
			d.mutex.Unlock()
		case <-d.ctx.Done():
			return
		}
	}
}

// flushLogs must be called with the mutex held.
func (d *LogCollector) flushLogs() {
	if len(d.pending) == 0 || d.config.Publisher == nil {
		return
	}

	logs := make([]AggregatedLogEntry, 0, len(d.pending))
	for _, entry := range d.pending {
		logs = append(logs, *entry)
	}
	d.pending = make(map[string]*AggregatedLogEntry)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := d.config.Publisher.PublishMessage(ctx, d.config.Topic, logs); err != nil {
			fmt.Printf("Failed to send aggregated logs: %v\n", err)
		}
	}()
}

func (d *LogCollector) Close() {
	d.cancel()
	d.mutex.Lock()
	d.flushLogs()
	d.mutex.Unlock()
	d.wg.Wait()
}
