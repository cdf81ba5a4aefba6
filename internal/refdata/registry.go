package refdata

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"smartorder/internal/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const (
	clientsFile    = "clients.yaml"
	instrumentFile = "instruments.yaml"
	historicalFile = "historical_orders.yaml"
	candlesFile    = "candles.yaml"
	marketFile     = "market.json"
)

// Registry loads the desk-supplied reference files and keeps an immutable
// snapshot that is swapped wholesale on reload. Missing files and missing
// rows are expected and never an error.
type Registry struct {
	dir        string
	marketPath string

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewRegistry reads the reference directory once. marketPath overrides the
// default market.json location inside dir; pass "" to use the default.
func NewRegistry(dir, marketPath string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("refdata registry requires a directory")
	}
	if strings.TrimSpace(marketPath) == "" {
		marketPath = filepath.Join(dir, marketFile)
	}
	r := &Registry{dir: dir, marketPath: marketPath}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Snapshot returns the current immutable reference view.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Watch reloads the registry whenever a reference file changes, until ctx is
// cancelled. Reload failures keep the previous snapshot.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(r.dir); err != nil {
		return err
	}
	if dir := filepath.Dir(r.marketPath); dir != r.dir {
		if err := watcher.Add(dir); err != nil {
			logger.Warnf("refdata watch market dir failed: %v", err)
		}
	}

	// Editors fire bursts of writes; coalesce them before reloading.
	var pending *time.Timer
	reloads := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})
		case <-reloads:
			if err := r.reload(); err != nil {
				logger.Errorf("refdata reload failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("refdata watcher error: %v", err)
		}
	}
}

func (r *Registry) reload() error {
	snap := Snapshot{
		LoadedAt:   time.Now(),
		clients:    make(map[string]ClientProfile),
		instrument: make(map[string]InstrumentProfile),
		market:     make(map[string]MarketSnapshot),
	}

	var clients struct {
		Clients []ClientProfile `yaml:"clients"`
	}
	if err := readYAMLFile(filepath.Join(r.dir, clientsFile), &clients); err != nil {
		return err
	}
	for _, c := range clients.Clients {
		id := strings.TrimSpace(c.ClientID)
		if id == "" {
			continue
		}
		c.ClientID = id
		snap.clients[id] = c
	}

	var instruments struct {
		Instruments []InstrumentProfile `yaml:"instruments"`
	}
	if err := readYAMLFile(filepath.Join(r.dir, instrumentFile), &instruments); err != nil {
		return err
	}
	for _, ins := range instruments.Instruments {
		sym := normalizeSymbol(ins.Symbol)
		if sym == "" {
			continue
		}
		ins.Symbol = sym
		snap.instrument[sym] = ins
	}

	var historical struct {
		Orders []HistoricalOrderRecord `yaml:"orders"`
	}
	if err := readYAMLFile(filepath.Join(r.dir, historicalFile), &historical); err != nil {
		return err
	}
	for i := range historical.Orders {
		historical.Orders[i].SizeBucket = normalizeSizeBucket(historical.Orders[i].SizeBucket)
	}
	snap.historical = historical.Orders

	var candles struct {
		Candles map[string][]Candle `yaml:"candles"`
	}
	if err := readYAMLFile(filepath.Join(r.dir, candlesFile), &candles); err != nil {
		return err
	}

	markets, err := loadMarketSnapshots(r.marketPath)
	if err != nil {
		return err
	}
	for _, m := range markets {
		snap.market[m.Symbol] = m
	}
	deriveMarketFields(snap.market, candles.Candles)

	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()
	logger.Infof("refdata loaded: clients=%d instruments=%d market=%d historical=%d",
		len(snap.clients), len(snap.instrument), len(snap.market), len(snap.historical))
	return nil
}

// readYAMLFile strictly decodes a YAML reference file into out. A missing
// file leaves out untouched.
func readYAMLFile(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read reference file failed (%s): %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse reference file failed (%s): %w", path, err)
	}
	return nil
}
