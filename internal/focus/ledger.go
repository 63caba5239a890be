// Package focus keeps a per-day ledger of distraction time in BadgerDB.
package focus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/iammorganparry/hyprcontext/internal/models"
	"github.com/iammorganparry/hyprcontext/internal/notify"
)

const (
	dayPrefix  = "day:"
	DateLayout = "2006-01-02"

	// warnPercent is the share of the daily budget after which the first
	// warning fires.
	warnPercent = 80
)

// Crossing reports a budget threshold passed by a Record call. Each crossing
// fires at most once per day.
type Crossing int

const (
	CrossingNone Crossing = iota
	CrossingWarning
	CrossingLimit
)

func (c Crossing) String() string {
	switch c {
	case CrossingWarning:
		return "warning"
	case CrossingLimit:
		return "limit"
	default:
		return "none"
	}
}

// Ledger accumulates FocusDay entries keyed by local calendar date.
type Ledger struct {
	db    *badger.DB
	limit int64
	now   func() time.Time
}

// Open opens the ledger under dir. An empty dir keeps the ledger in memory.
// dailyLimit is the distraction budget per day; zero disables it.
func Open(dir string, dailyLimit time.Duration) (*Ledger, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open focus ledger: %w", err)
	}
	return &Ledger{db: db, limit: int64(dailyLimit / time.Second), now: time.Now}, nil
}

func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Entry is what one tick contributes to the ledger.
type Entry struct {
	Observation models.Observation
	// Span is the wall-clock time the observation stands for, normally the
	// capture interval.
	Span    time.Duration
	Alerted bool
}

// Record folds one tick into the entry for the observation's local date and
// returns the updated day along with any budget threshold it crossed.
func (l *Ledger) Record(e Entry) (*models.FocusDay, Crossing, error) {
	date := e.Observation.Timestamp.Local().Format(DateLayout)
	key := []byte(dayPrefix + date)

	var (
		day      models.FocusDay
		crossing Crossing
	)
	err := l.db.Update(func(txn *badger.Txn) error {
		day = models.FocusDay{Date: date}
		crossing = CrossingNone

		item, err := txn.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &day)
			}); err != nil {
				return fmt.Errorf("decode focus day: %w", err)
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		day.ObservationCount++
		if e.Observation.Distracted() {
			day.DistractedCount++
			day.DistractionSeconds += int64(e.Span / time.Second)
			day.LastDistraction = strings.Join(e.Observation.Tags, ", ")
		}
		if e.Alerted {
			day.AlertCount++
		}
		crossing = l.cross(&day)
		day.UpdatedAt = l.now()

		data, err := json.Marshal(day)
		if err != nil {
			return fmt.Errorf("encode focus day: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, CrossingNone, fmt.Errorf("record focus day: %w", err)
	}
	l.fill(&day)
	return &day, crossing, nil
}

// cross marks the budget flags on day and reports the first threshold newly
// passed. Spending the whole budget also counts as the warning.
func (l *Ledger) cross(day *models.FocusDay) Crossing {
	if l.limit <= 0 {
		return CrossingNone
	}
	used := day.DistractionSeconds
	switch {
	case used >= l.limit && !day.BudgetSpent:
		day.BudgetSpent = true
		day.BudgetWarned = true
		return CrossingLimit
	case used*100 > l.limit*warnPercent && !day.BudgetWarned:
		day.BudgetWarned = true
		return CrossingWarning
	}
	return CrossingNone
}

// fill derives the budget view of day from the configured limit.
func (l *Ledger) fill(day *models.FocusDay) {
	day.LimitSeconds = l.limit
	if l.limit <= 0 {
		day.RemainingSeconds = 0
		day.PercentUsed = 0
		return
	}
	day.RemainingSeconds = max(0, l.limit-day.DistractionSeconds)
	day.PercentUsed = min(100, float64(day.DistractionSeconds)*100/float64(l.limit))
}

// Day returns the entry for date (YYYY-MM-DD), or nil when nothing was recorded.
func (l *Ledger) Day(date string) (*models.FocusDay, error) {
	var day *models.FocusDay
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dayPrefix + date))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			day = &models.FocusDay{}
			return json.Unmarshal(val, day)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read focus day: %w", err)
	}
	if day != nil {
		l.fill(day)
	}
	return day, nil
}

// Today returns the entry for the current local date.
func (l *Ledger) Today() (*models.FocusDay, error) {
	return l.Day(l.now().Local().Format(DateLayout))
}

// Days returns every entry between from and to inclusive, oldest first.
func (l *Ledger) Days(from, to string) ([]models.FocusDay, error) {
	var days []models.FocusDay
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(dayPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(dayPrefix + from)); it.Valid(); it.Next() {
			item := it.Item()
			if string(item.Key()) > dayPrefix+to {
				break
			}
			var day models.FocusDay
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &day)
			}); err != nil {
				return err
			}
			l.fill(&day)
			days = append(days, day)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list focus days: %w", err)
	}
	return days, nil
}

// BudgetNotification renders a budget crossing as a desktop notification.
func BudgetNotification(day *models.FocusDay, c Crossing) notify.Notification {
	used := time.Duration(day.DistractionSeconds) * time.Second
	if c == CrossingLimit {
		msg := fmt.Sprintf("Daily distraction budget spent (%s)", used)
		if day.LastDistraction != "" {
			msg += ", last on " + day.LastDistraction
		}
		return notify.Notification{
			Title:   "Distraction limit reached",
			Message: msg + ".",
			Urgency: notify.UrgencyCritical,
		}
	}
	left := time.Duration(day.RemainingSeconds) * time.Second
	return notify.Notification{
		Title:   "Distraction budget",
		Message: fmt.Sprintf("%.0f%% of today's budget used, %s left.", day.PercentUsed, left),
		Urgency: notify.UrgencyNormal,
	}
}
