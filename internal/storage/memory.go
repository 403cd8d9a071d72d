package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yagosupro/ethparser/internal/model"
)

// MemoryStore is an in-memory TransferStore used by tests and by runs
// without a Postgres DSN.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*model.Transfer
	records []*model.Transfer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*model.Transfer)}
}

func (s *MemoryStore) ExistsByID(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok, nil
}

func (s *MemoryStore) Save(_ context.Context, t *model.Transfer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.ID]; ok {
		return false, nil
	}
	clone := *t
	s.byID[t.ID] = &clone
	s.records = append(s.records, &clone)
	return true, nil
}

func (s *MemoryStore) FetchHistory(_ context.Context, address string, types []model.TransferType, beforeBlockDate int64) ([]*model.Transfer, error) {
	address = strings.ToLower(address)
	wanted := make(map[model.TransferType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	s.mu.RLock()
	out := make([]*model.Transfer, 0)
	for _, rec := range s.records {
		if rec.BlockDate > beforeBlockDate {
			continue
		}
		if strings.ToLower(rec.Owner) != address && strings.ToLower(rec.Recipient) != address {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[rec.Type]; !ok {
				continue
			}
		}
		clone := *rec
		out = append(out, &clone)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BlockDate != out[j].BlockDate {
			return out[i].BlockDate < out[j].BlockDate
		}
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		return out[i].LogIndex < out[j].LogIndex
	})
	return out, nil
}

func (s *MemoryStore) BalanceAsOf(_ context.Context, address string, blockDate int64) (float64, error) {
	address = strings.ToLower(address)
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := 0.0
	for _, rec := range s.records {
		if rec.BlockDate > blockDate {
			continue
		}
		if strings.ToLower(rec.Recipient) == address {
			balance += rec.Value
		} else if strings.ToLower(rec.Owner) == address {
			balance -= rec.Value
		}
	}
	return balance, nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
