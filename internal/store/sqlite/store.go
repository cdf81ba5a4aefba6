package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smartorder/internal/store"
	storemodel "smartorder/internal/store/model"
	"smartorder/internal/types"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ticketModel = storemodel.TicketModel

// Store persists tickets in SQLite via gorm.
type Store struct {
	db *gorm.DB
}

var _ store.TicketStore = (*Store)(nil)

// New opens (or creates) the ticket database at path and migrates the
// schema.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ticket store: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ticketModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little parallelism for concurrent HTTP reads while
	// keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveTicket persists a recommendation. A missing ID gets a fresh UUID and a
// zero CreatedAt gets the current time; the stored record is returned.
func (s *Store) SaveTicket(ctx context.Context, rec store.TicketRecord) (store.TicketRecord, error) {
	if s == nil || s.db == nil {
		return store.TicketRecord{}, fmt.Errorf("ticket store not initialized")
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	model, err := newTicketModel(rec)
	if err != nil {
		return store.TicketRecord{}, err
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return store.TicketRecord{}, err
	}
	return rec, nil
}

// GetTicket fetches one ticket by id; the bool reports whether it exists.
func (s *Store) GetTicket(ctx context.Context, id string) (store.TicketRecord, bool, error) {
	if s == nil || s.db == nil {
		return store.TicketRecord{}, false, fmt.Errorf("ticket store not initialized")
	}
	var model ticketModel
	if err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.TicketRecord{}, false, nil
		}
		return store.TicketRecord{}, false, err
	}
	rec, err := ticketModelToRecord(model)
	if err != nil {
		return store.TicketRecord{}, false, err
	}
	return rec, true, nil
}

// ListTickets returns tickets newest first, optionally filtered by client
// and symbol.
func (s *Store) ListTickets(ctx context.Context, opts store.ListOptions) ([]store.TicketRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("ticket store not initialized")
	}
	query := s.applyFilters(s.db.WithContext(ctx).Model(&ticketModel{}), opts)

	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var models []ticketModel
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.TicketRecord, 0, len(models))
	for _, m := range models {
		rec, err := ticketModelToRecord(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// CountTickets counts tickets matching the filters.
func (s *Store) CountTickets(ctx context.Context, opts store.ListOptions) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("ticket store not initialized")
	}
	var total int64
	if err := s.applyFilters(s.db.WithContext(ctx).Model(&ticketModel{}), opts).Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// AlgoMix counts saved tickets per chosen strategy.
func (s *Store) AlgoMix(ctx context.Context) (map[types.Algo]int, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("ticket store not initialized")
	}
	var rows []struct {
		AlgoType string
		Total    int
	}
	if err := s.db.WithContext(ctx).Model(&ticketModel{}).
		Select("algo_type, COUNT(*) AS total").
		Group("algo_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	mix := make(map[types.Algo]int, len(rows))
	for _, r := range rows {
		mix[types.Algo(r.AlgoType)] = r.Total
	}
	return mix, nil
}

func (s *Store) applyFilters(query *gorm.DB, opts store.ListOptions) *gorm.DB {
	if client := strings.TrimSpace(opts.ClientID); client != "" {
		query = query.Where("client_id = ?", client)
	}
	if sym := strings.ToUpper(strings.TrimSpace(opts.Symbol)); sym != "" {
		query = query.Where("UPPER(symbol) = ?", sym)
	}
	return query
}

func newTicketModel(rec store.TicketRecord) (ticketModel, error) {
	payload, err := json.Marshal(rec.Recommendation)
	if err != nil {
		return ticketModel{}, fmt.Errorf("marshal ticket payload failed: %w", err)
	}
	fatFinger := 0
	if rec.FatFinger {
		fatFinger = 1
	}
	return ticketModel{
		ID:          rec.ID,
		ClientID:    strings.TrimSpace(rec.ClientID),
		Symbol:      strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Side:        string(rec.Side),
		OrderSize:   rec.OrderSize,
		TimeToClose: rec.TimeToClose,
		Notes:       rec.Notes,
		AlgoType:    string(rec.AlgoType),
		OrderType:   string(rec.OrderType),
		Urgency:     string(rec.Urgency),
		FatFinger:   fatFinger,
		Payload:     datatypes.JSON(payload),
		CreatedAt:   rec.CreatedAt.UnixMilli(),
	}, nil
}

func ticketModelToRecord(m ticketModel) (store.TicketRecord, error) {
	rec := store.TicketRecord{
		ID:          m.ID,
		ClientID:    m.ClientID,
		Symbol:      m.Symbol,
		Side:        types.Side(m.Side),
		OrderSize:   m.OrderSize,
		TimeToClose: m.TimeToClose,
		Notes:       m.Notes,
		AlgoType:    types.Algo(m.AlgoType),
		OrderType:   types.OrderType(m.OrderType),
		Urgency:     types.Bucket(m.Urgency),
		FatFinger:   m.FatFinger != 0,
		CreatedAt:   time.UnixMilli(m.CreatedAt),
	}
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &rec.Recommendation); err != nil {
			return store.TicketRecord{}, fmt.Errorf("unmarshal ticket payload failed: %w", err)
		}
	}
	return rec, nil
}
