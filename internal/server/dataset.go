package server

import (
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/analysis"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/logger"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

// Dataset is one order file served by the API. It reloads the file when its
// fingerprint (path, size, mtime) changes and memoizes computed results per
// fingerprint and parameter tuple.
type Dataset struct {
	Path   string
	Load   orders.Options
	Engine rfm.Options

	log   *logger.Logger
	cache *lru.Cache[string, any]

	mu          sync.Mutex
	fingerprint string
	table       *orders.Table
}

// NewDataset loads path once so a bad file fails at startup.
func NewDataset(path string, load orders.Options, engine rfm.Options, cacheSize int, log *logger.Logger) (*Dataset, error) {
	if err := engine.Validate(); err != nil {
		return nil, err
	}
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[string, any](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	load.Progress = nil
	d := &Dataset{Path: path, Load: load, Engine: engine, log: log.Component("dataset"), cache: cache}
	if _, _, err := d.snapshot(); err != nil {
		return nil, err
	}
	return d, nil
}

func fingerprint(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat dataset: %w", err)
	}
	return fmt.Sprintf("%s:%d:%d", path, st.Size(), st.ModTime().UnixNano()), nil
}

// snapshot returns the current table, reloading it and purging the cache when
// the file changed on disk.
func (d *Dataset) snapshot() (*orders.Table, string, error) {
	fp, err := fingerprint(d.Path)
	if err != nil {
		return nil, "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.table != nil && fp == d.fingerprint {
		return d.table, fp, nil
	}
	start := time.Now()
	t, err := orders.Load(d.Path, d.Load)
	if err != nil {
		return nil, "", err
	}
	if d.table != nil {
		d.cache.Purge()
	}
	d.table, d.fingerprint = t, fp
	d.log.WithField("path", d.Path).
		WithField("rows", t.Rows).
		WithField("duration", time.Since(start).String()).
		Info("dataset loaded")
	return t, fp, nil
}

// Result returns the scored table for opt, computing it at most once per
// dataset version.
func (d *Dataset) Result(opt rfm.Options) (*rfm.Result, *orders.Table, error) {
	t, fp, err := d.snapshot()
	if err != nil {
		return nil, nil, err
	}
	key := fmt.Sprintf("%s|rfm|%s|%s|%s|%d|%d", fp, opt.FrequencyMode, opt.RecencyOrder, opt.Fallback, opt.Tiers, opt.Reference.Unix())
	if v, ok := d.cache.Get(key); ok {
		return v.(*rfm.Result), t, nil
	}
	res, err := rfm.Compute(t.Records, opt)
	if err != nil {
		return nil, nil, err
	}
	d.cache.Add(key, res)
	return res, t, nil
}

// Overview returns the descriptive report of the current dataset version.
func (d *Dataset) Overview() (*analysis.Report, error) {
	t, fp, err := d.snapshot()
	if err != nil {
		return nil, err
	}
	key := fp + "|overview"
	if v, ok := d.cache.Get(key); ok {
		return v.(*analysis.Report), nil
	}
	rep := analysis.Analyze(t, analysis.DefaultOptions())
	d.cache.Add(key, rep)
	return rep, nil
}
