package logger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	historyTimeLayout = "2006-01-02 15:04:05"
	maxHistoryRecords = 200
)

// ExecutionRecord is one command run.
type ExecutionRecord struct {
	Timestamp string                 `json:"timestamp"`
	Command   string                 `json:"command"`
	Success   int                    `json:"success"`
	Unchanged int                    `json:"unchanged"`
	Failed    int                    `json:"failed"`
	Duration  int                    `json:"duration"` // seconds
	Trigger   string                 `json:"trigger"`  // manual, schedule, force
	Warnings  int                    `json:"warnings"`
	Errors    int                    `json:"errors"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type RecentStats struct {
	Count       int     `json:"count"`
	SuccessRate float64 `json:"success_rate"`
}

type ExecutionStats struct {
	TotalExecutions int         `json:"total_executions"`
	SuccessRate     float64     `json:"success_rate"`
	AvgDuration     float64     `json:"avg_duration"`
	LastExecution   string      `json:"last_execution,omitempty"`
	Recent7d        RecentStats `json:"recent_7d"`
}

type historyFile struct {
	Records []ExecutionRecord `json:"records"`
	Stats   ExecutionStats    `json:"stats"`
}

// ExecutionHistory is the JSON run log kept under the cache directory.
type ExecutionHistory struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func NewExecutionHistory(path string) *ExecutionHistory {
	return &ExecutionHistory{path: path, now: time.Now}
}

// Record appends rec, keeps the newest records and refreshes the stats.
func (h *ExecutionHistory) Record(rec ExecutionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data := h.load()
	if rec.Timestamp == "" {
		rec.Timestamp = h.now().Format(historyTimeLayout)
	}
	if rec.Trigger == "" {
		rec.Trigger = "manual"
	}
	data.Records = append(data.Records, rec)
	if len(data.Records) > maxHistoryRecords {
		data.Records = data.Records[len(data.Records)-maxHistoryRecords:]
	}
	data.Stats = h.stats(data.Records)

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return os.WriteFile(h.path, b, 0o644)
}

// Recent returns the last n records.
func (h *ExecutionHistory) Recent(n int) []ExecutionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	recs := h.load().Records
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs
}

func (h *ExecutionHistory) Stats() ExecutionStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load().Stats
}

// Summary renders the stats block shown by the CLI.
func (h *ExecutionHistory) Summary() string {
	st := h.Stats()
	if st.TotalExecutions == 0 {
		return "暂无执行记录"
	}
	lines := []string{
		"📊 执行统计",
		fmt.Sprintf("  总执行次数: %d", st.TotalExecutions),
		fmt.Sprintf("  成功率: %.1f%%", st.SuccessRate),
		fmt.Sprintf("  平均耗时: %.1f秒", st.AvgDuration),
		fmt.Sprintf("  最近执行: %s", st.LastExecution),
		fmt.Sprintf("  近7天: %d次, 成功率 %.1f%%", st.Recent7d.Count, st.Recent7d.SuccessRate),
	}
	return strings.Join(lines, "\n")
}

func (h *ExecutionHistory) load() historyFile {
	var data historyFile
	b, err := os.ReadFile(h.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "read execution history: %v\n", err)
		}
		return data
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return historyFile{}
	}
	return data
}

func (h *ExecutionHistory) stats(records []ExecutionRecord) ExecutionStats {
	if len(records) == 0 {
		return ExecutionStats{}
	}
	ok, total := 0, 0
	weekAgo := h.now().Add(-7 * 24 * time.Hour)
	recent, recentOK := 0, 0
	for _, r := range records {
		if r.Failed == 0 {
			ok++
		}
		total += r.Duration
		ts, err := time.ParseInLocation(historyTimeLayout, r.Timestamp, time.Local)
		if err == nil && ts.After(weekAgo) {
			recent++
			if r.Failed == 0 {
				recentOK++
			}
		}
	}
	st := ExecutionStats{
		TotalExecutions: len(records),
		SuccessRate:     round1(float64(ok) / float64(len(records)) * 100),
		AvgDuration:     round1(float64(total) / float64(len(records))),
		LastExecution:   records[len(records)-1].Timestamp,
		Recent7d:        RecentStats{Count: recent},
	}
	if recent > 0 {
		st.Recent7d.SuccessRate = round1(float64(recentOK) / float64(recent) * 100)
	}
	return st
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
