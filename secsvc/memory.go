package secsvc

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryService is an in-memory Service for tests and ephemeral use.
// Nothing is persisted and nothing is encrypted.
type MemoryService struct {
	mu    sync.RWMutex
	items map[string]*memItem // keyed by persistent reference
}

type memItem struct {
	attrs Attributes
	data  []byte
}

// Memory creates a new in-memory service.
func Memory() *MemoryService {
	return &MemoryService{items: make(map[string]*memItem)}
}

func (s *MemoryService) Add(attrs Attributes, data []byte) (string, error) {
	class, _ := attrs[AttrClass].(string)
	if class == "" {
		return "", ErrParam
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.attrs[AttrClass] == class && duplicates(class, it.attrs, attrs) {
			return "", ErrDuplicate
		}
	}

	ref := strings.ToUpper(uuid.NewString())
	stored := attrs.Clone()
	now := int(time.Now().Unix())
	stored[AttrCreated] = now
	stored[AttrModified] = now
	s.items[ref] = &memItem{attrs: stored, data: append([]byte(nil), data...)}
	return ref, nil
}

func (s *MemoryService) Copy(q Query) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Item
	for _, ref := range s.sortedRefs() {
		it := s.items[ref]
		if !match(q, ref, it.attrs) {
			continue
		}
		if err := authorize(q, it.attrs); err != nil {
			return nil, err
		}
		out = append(out, Item{
			Ref:   ref,
			Attrs: it.attrs.Clone(),
			Data:  append([]byte(nil), it.data...),
		})
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *MemoryService) Delete(q Query) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []string
	for ref, it := range s.items {
		if match(q, ref, it.attrs) {
			doomed = append(doomed, ref)
		}
	}
	for _, ref := range doomed {
		delete(s.items, ref)
	}
	return len(doomed), nil
}

// sortedRefs keeps Copy output deterministic. Callers hold s.mu.
func (s *MemoryService) sortedRefs() []string {
	refs := make([]string, 0, len(s.items))
	for ref := range s.items {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
