// In file: internal/stats/profiler.go

// Package stats keeps per-tool call profiles and the upstream health status in
// Redis. It stores call metadata only; story data is never written.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix = "hngw:profile:"
	// latencyAlpha weights the newest sample in the latency moving average.
	latencyAlpha = 0.1
)

// UpstreamProfile is the profile name the health checker writes to.
const UpstreamProfile = "upstream"

// Status values.
const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"
	StatusOffline  = "offline"
)

// ToolProfile tracks reliability and latency for one tool.
type ToolProfile struct {
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	AvgLatencyMS    int64     `json:"avg_latency_ms"`
	TotalSuccesses  int64     `json:"total_successes"`
	TotalFailures   int64     `json:"total_failures"`
	ErrorRate       float64   `json:"error_rate"`
	LastErrorKind   string    `json:"last_error_kind,omitempty"`
	LastCalled      *time.Time `json:"last_called,omitempty"`
	LastHealthCheck *time.Time `json:"last_health_check,omitempty"`
}

// Profiler records tool outcomes in Redis hashes keyed by tool name.
type Profiler struct {
	rdb redis.UniversalClient
	log logrus.FieldLogger
}

func NewProfiler(rdb redis.UniversalClient, log logrus.FieldLogger) *Profiler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Profiler{rdb: rdb, log: log}
}

func (p *Profiler) profileKey(name string) string {
	return keyPrefix + name
}

// RecordSuccess implements tools.Recorder.
func (p *Profiler) RecordSuccess(ctx context.Context, tool string, latency time.Duration) {
	key := p.profileKey(tool)
	p.updateLatency(ctx, key, latency)

	pipe := p.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HSet(ctx, key,
		"name", tool,
		"status", StatusOnline,
		"last_called", time.Now().UTC().Format(time.RFC3339Nano),
	)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		p.log.WithFields(logrus.Fields{"tool": tool, "error": err}).Warn("stats: success update failed")
		return
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	p.updateErrorRate(ctx, key, successes.Val(), totalFailures)
}

// RecordFailure implements tools.Recorder.
func (p *Profiler) RecordFailure(ctx context.Context, tool, kind string, latency time.Duration) {
	key := p.profileKey(tool)
	p.updateLatency(ctx, key, latency)

	pipe := p.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	pipe.HSet(ctx, key,
		"name", tool,
		"status", StatusDegraded,
		"last_error_kind", kind,
		"last_called", time.Now().UTC().Format(time.RFC3339Nano),
	)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		p.log.WithFields(logrus.Fields{"tool": tool, "error": err}).Warn("stats: failure update failed")
		return
	}

	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	p.updateErrorRate(ctx, key, totalSuccesses, failures.Val())
}

// RecordHealthCheck stores the outcome of a proactive upstream check.
func (p *Profiler) RecordHealthCheck(ctx context.Context, healthy bool) {
	status := StatusOffline
	if healthy {
		status = StatusOnline
	}
	key := p.profileKey(UpstreamProfile)
	err := p.rdb.HSet(ctx, key,
		"name", UpstreamProfile,
		"status", status,
		"last_health_check", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		p.log.WithField("error", err).Warn("stats: health check update failed")
	}
}

// GetProfile returns the profile for name. A name never recorded yields a
// zero profile with status "unknown".
func (p *Profiler) GetProfile(ctx context.Context, name string) (*ToolProfile, error) {
	data, err := p.rdb.HGetAll(ctx, p.profileKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("stats: read profile %s: %w", name, err)
	}
	profile := &ToolProfile{Name: name, Status: "unknown"}
	if len(data) == 0 {
		return profile, nil
	}
	if s := data["status"]; s != "" {
		profile.Status = s
	}
	profile.AvgLatencyMS, _ = strconv.ParseInt(data["avg_latency_ms"], 10, 64)
	profile.TotalSuccesses, _ = strconv.ParseInt(data["total_successes"], 10, 64)
	profile.TotalFailures, _ = strconv.ParseInt(data["total_failures"], 10, 64)
	profile.ErrorRate, _ = strconv.ParseFloat(data["error_rate"], 64)
	profile.LastErrorKind = data["last_error_kind"]
	profile.LastCalled = parseTime(data["last_called"])
	profile.LastHealthCheck = parseTime(data["last_health_check"])
	return profile, nil
}

// parseTime returns nil for a missing or unparseable timestamp.
func parseTime(v string) *time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil
	}
	return &t
}

// ListProfiles returns every stored profile sorted by name.
func (p *Profiler) ListProfiles(ctx context.Context) ([]*ToolProfile, error) {
	var names []string
	iter := p.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stats: scan profiles: %w", err)
	}
	sort.Strings(names)

	profiles := make([]*ToolProfile, 0, len(names))
	for _, name := range names {
		profile, err := p.GetProfile(ctx, name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// updateLatency folds a sample into the moving average under WATCH so that
// concurrent calls don't overwrite each other.
func (p *Profiler) updateLatency(ctx context.Context, key string, latency time.Duration) {
	sample := latency.Milliseconds()
	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "avg_latency_ms").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		next := sample
		if err == nil {
			prev, _ := strconv.ParseInt(current, 10, 64)
			next = int64(latencyAlpha*float64(sample) + (1.0-latencyAlpha)*float64(prev))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", next)
			return nil
		})
		return err
	}, key)
	if err != nil {
		p.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("stats: latency update failed")
	}
}

func (p *Profiler) updateErrorRate(ctx context.Context, key string, successes, failures int64) {
	total := successes + failures
	if total == 0 {
		return
	}
	rate := float64(failures) / float64(total)
	if err := p.rdb.HSet(ctx, key, "error_rate", rate).Err(); err != nil {
		p.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("stats: error rate update failed")
	}
}
