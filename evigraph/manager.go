package evigraph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// managerCache is the process-wide (scope, cacheDir) -> *Manager table, so
// concurrent callers operating on the same scope share one in-memory view
// and the same mutex instead of racing independent file writes.
var managerCache sync.Map

type cacheKey struct {
	scope    string
	cacheDir string
}

// Manager is a single scope's evidence graph: an in-memory document plus
// the file it persists to. All mutating operations are serialized by mu,
// satisfying the "writes are serialized by the per-scope cache's internal
// lock" ordering guarantee for concurrent invocations sharing a scope.
type Manager struct {
	mu       sync.Mutex
	scope    string
	cacheDir string
	doc      *document
	cache    *RedisCache
}

// GetManager returns the Manager for (scope, cacheDir), creating and
// loading it from disk on first use and reusing the cached instance on
// every subsequent call from anywhere in the process.
func GetManager(scope, cacheDir string) (*Manager, error) {
	key := cacheKey{scope: scope, cacheDir: cacheDir}
	if v, ok := managerCache.Load(key); ok {
		return v.(*Manager), nil
	}

	m := &Manager{scope: scope, cacheDir: cacheDir, doc: newDocument()}
	if err := m.load(); err != nil {
		return nil, err
	}
	actual, _ := managerCache.LoadOrStore(key, m)
	return actual.(*Manager), nil
}

// ClearManagerCache evicts the cached Manager for (scope, cacheDir). The
// next GetManager call reloads it from disk. It does not delete the file.
func ClearManagerCache(scope, cacheDir string) {
	managerCache.Delete(cacheKey{scope: scope, cacheDir: cacheDir})
}

// Reload re-reads the document from the cache (if attached) or the scope
// file, discarding any in-memory state not yet persisted. Callers attach a
// RedisCache via WithRedisCache after GetManager returns; Reload lets them
// force a read through that cache immediately afterward instead of waiting
// for the next GetManager/ClearManagerCache cycle.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

func (m *Manager) path() string {
	safe := strings.ReplaceAll(m.scope, string(filepath.Separator), "_")
	return filepath.Join(m.cacheDir, safe+".json")
}

func (m *Manager) load() error {
	if m.cache != nil {
		if data, ok, err := m.cache.Get(context.Background(), m.scope); err == nil && ok {
			doc := newDocument()
			if err := json.Unmarshal(data, doc); err == nil {
				if doc.Entities == nil {
					doc.Entities = make(map[string]*Entity)
				}
				m.doc = doc
				return nil
			}
		}
	}

	data, err := os.ReadFile(m.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("evigraph: read scope file: %w", err)
	}
	doc := newDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("evigraph: parse scope file: %w", err)
	}
	if doc.Entities == nil {
		doc.Entities = make(map[string]*Entity)
	}
	m.doc = doc
	return nil
}

// persist writes the document to disk atomically (temp file in the same
// directory, then rename over the target) and, if a cache is attached,
// writes through to it too. Caller must hold mu.
func (m *Manager) persist() error {
	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return fmt.Errorf("evigraph: create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(m.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("evigraph: marshal scope: %w", err)
	}
	tmp, err := os.CreateTemp(m.cacheDir, ".evigraph-*.tmp")
	if err != nil {
		return fmt.Errorf("evigraph: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("evigraph: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("evigraph: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, m.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("evigraph: rename temp file: %w", err)
	}

	if m.cache != nil {
		if err := m.cache.Set(context.Background(), m.scope, data); err != nil {
			return err
		}
	}
	return nil
}

// EntityInput is one entity to upsert via CreateEntities.
type EntityInput struct {
	Name         string
	EntityType   string
	Observations []string
}

// CreateEntities upserts each entity by name: an existing entity keeps its
// type and gains any observations it did not already have; a new entity is
// created as given. Insertion order of observations is preserved.
func (m *Manager) CreateEntities(entities []EntityInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, in := range entities {
		e, exists := m.doc.Entities[in.Name]
		if !exists {
			e = &Entity{Name: in.Name, EntityType: in.EntityType, CreatedAt: now}
			m.doc.Entities[in.Name] = e
		}
		e.UpdatedAt = now
		appendUnseen(&e.Observations, in.Observations)
	}
	return m.persist()
}

// CreateRelations upserts each relation by its (from, to, type) identity
// triple, creating either endpoint entity on demand if it does not yet
// exist in this scope.
func (m *Manager) CreateRelations(relations []Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	existing := make(map[string]struct{}, len(m.doc.Relations))
	for _, r := range m.doc.Relations {
		existing[relationKey(r)] = struct{}{}
	}
	for _, r := range relations {
		m.ensureEntity(r.From, now)
		m.ensureEntity(r.To, now)
		if _, dup := existing[relationKey(r)]; dup {
			continue
		}
		existing[relationKey(r)] = struct{}{}
		m.doc.Relations = append(m.doc.Relations, r)
	}
	return m.persist()
}

func (m *Manager) ensureEntity(name string, now time.Time) {
	if _, ok := m.doc.Entities[name]; !ok {
		m.doc.Entities[name] = &Entity{Name: name, EntityType: "unknown", CreatedAt: now, UpdatedAt: now}
	}
}

// ObservationInput adds contents to a single named entity, creating it if
// it does not exist.
type ObservationInput struct {
	EntityName string
	Contents   []string
}

// AddObservations creates any missing named entity and appends unseen
// observation strings to each, preserving insertion order.
func (m *Manager) AddObservations(inputs []ObservationInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, in := range inputs {
		e, exists := m.doc.Entities[in.EntityName]
		if !exists {
			e = &Entity{Name: in.EntityName, EntityType: "unknown", CreatedAt: now}
			m.doc.Entities[in.EntityName] = e
		}
		e.UpdatedAt = now
		appendUnseen(&e.Observations, in.Contents)
	}
	return m.persist()
}

func appendUnseen(dst *[]string, add []string) {
	seen := make(map[string]struct{}, len(*dst))
	for _, s := range *dst {
		seen[s] = struct{}{}
	}
	for _, s := range add {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		*dst = append(*dst, s)
	}
}

// SearchResult is one hit from SearchNodes.
type SearchResult struct {
	Entity *Entity
	Score  int
}

// SearchNodes returns up to topK entities whose name, type, or
// observations contain query as a case-insensitive substring, ranked by
// how many fields matched. Exact relevance scoring is intentionally
// simple: this is a recall aid for an LLM to read, not a search index.
func (m *Manager) SearchNodes(query string, topK int) []SearchResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := strings.ToLower(query)
	var results []SearchResult
	for _, e := range m.doc.Entities {
		score := 0
		if strings.Contains(strings.ToLower(e.Name), q) {
			score++
		}
		if strings.Contains(strings.ToLower(e.EntityType), q) {
			score++
		}
		for _, obs := range e.Observations {
			if strings.Contains(strings.ToLower(obs), q) {
				score++
			}
		}
		if score > 0 {
			results = append(results, SearchResult{Entity: e, Score: score})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entity.Name < results[j].Entity.Name
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// OpenNodes returns the named entities plus every relation touching any
// of them.
func (m *Manager) OpenNodes(names []string) ([]*Entity, []Relation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var entities []*Entity
	for _, n := range names {
		if e, ok := m.doc.Entities[n]; ok {
			entities = append(entities, e)
		}
	}
	var relations []Relation
	for _, r := range m.doc.Relations {
		_, fromWanted := wanted[r.From]
		_, toWanted := wanted[r.To]
		if fromWanted || toWanted {
			relations = append(relations, r)
		}
	}
	return entities, relations
}

// OverviewOptions controls TextOverview's output shape.
type OverviewOptions struct {
	MaxEntities        int
	MaxObsPerEntity    int
	GroupByType        bool
	IncludeStatistics  bool
}

// TextOverview renders a flat, human-readable dump of the scope, suitable
// for embedding in an ExecutionResults.EvidenceGraphData field or showing
// directly to a model.
func (m *Manager) TextOverview(opts OverviewOptions) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for name := range m.doc.Entities {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	if opts.IncludeStatistics {
		fmt.Fprintf(&sb, "Entities: %d, Relations: %d\n\n", len(m.doc.Entities), len(m.doc.Relations))
	}

	groups := map[string][]string{"": names}
	var groupOrder []string
	if opts.GroupByType {
		groups = make(map[string][]string)
		for _, n := range names {
			t := m.doc.Entities[n].EntityType
			groups[t] = append(groups[t], n)
		}
		for t := range groups {
			groupOrder = append(groupOrder, t)
		}
		sort.Strings(groupOrder)
	} else {
		groupOrder = []string{""}
	}

	shown := 0
	for _, group := range groupOrder {
		if opts.GroupByType {
			fmt.Fprintf(&sb, "## %s\n", group)
		}
		for _, name := range groups[group] {
			if opts.MaxEntities > 0 && shown >= opts.MaxEntities {
				break
			}
			e := m.doc.Entities[name]
			fmt.Fprintf(&sb, "- %s (%s)\n", e.Name, e.EntityType)
			obs := e.Observations
			if opts.MaxObsPerEntity > 0 && len(obs) > opts.MaxObsPerEntity {
				obs = obs[:opts.MaxObsPerEntity]
			}
			for _, o := range obs {
				fmt.Fprintf(&sb, "  - %s\n", o)
			}
			shown++
		}
	}
	return sb.String()
}
