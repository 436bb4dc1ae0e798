package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

// Index is the process-wide capability index. It is built once (or loaded
// from a snapshot) and shared by every session. Lazy parameter hydration of
// partial entries is the only mutation after construction, so every accessor
// synchronizes on the same mutex. Rebuilding is explicit and out of band.
type Index struct {
	entries    map[string]*domain.NodeTypeEntry
	order      []string
	categories map[string][]string
	triggers   []string
	aliases    map[string]string

	extractor *Extractor

	mu sync.Mutex
}

type IndexDeps struct {
	CorpusRoot   string
	Namespace    string
	SnapshotPath string
}

// Load builds an Index from the snapshot file when present and non-empty,
// otherwise falls back to a best-effort live scan of the corpus so the
// system stays usable before the offline build has run.
func Load(deps IndexDeps) (*Index, error) {
	extractor := NewExtractor(deps.CorpusRoot, deps.Namespace)

	if deps.SnapshotPath != "" {
		snapshot, err := ReadSnapshot(deps.SnapshotPath)
		if err == nil && snapshot.Count > 0 {
			log.Info().
				Int("node_types", snapshot.Count).
				Time("generated_at", snapshot.GeneratedAt).
				Msg("loaded capability index snapshot")

			return fromSnapshot(snapshot, extractor), nil
		}
		if err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", deps.SnapshotPath).Msg("snapshot unreadable, falling back to live scan")
		}
	}

	return QuickScan(extractor)
}

// QuickScan builds a best-effort index holding directly discoverable
// identifiers only. Entries are partial; GetDetails hydrates them from
// source on first hit.
func QuickScan(extractor *Extractor) (*Index, error) {
	entries, _, err := extractor.ScanNames()
	if err != nil {
		return nil, fmt.Errorf("failed to scan node corpus: %w", err)
	}

	idx := newIndex(extractor)
	for i := range entries {
		idx.add(&entries[i])
	}
	idx.applyCuratedAliases()

	log.Info().Int("node_types", len(idx.order)).Msg("built partial capability index from live scan")

	return idx, nil
}

// Build scans the corpus and constructs the index in memory.
func Build(extractor *Extractor) (*Index, error) {
	entries, manifestAliases, err := extractor.ScanAll()
	if err != nil {
		return nil, fmt.Errorf("failed to scan node corpus: %w", err)
	}

	idx := newIndex(extractor)

	for i := range entries {
		idx.add(&entries[i])
	}

	for alias, typeID := range manifestAliases {
		if _, exists := idx.aliases[alias]; !exists {
			idx.aliases[alias] = typeID
		}
	}

	idx.applyCuratedAliases()

	log.Info().Int("node_types", len(idx.order)).Msg("built capability index from corpus")

	return idx, nil
}

func newIndex(extractor *Extractor) *Index {
	return &Index{
		entries:    map[string]*domain.NodeTypeEntry{},
		categories: map[string][]string{},
		aliases:    map[string]string{},
		extractor:  extractor,
	}
}

func (idx *Index) add(entry *domain.NodeTypeEntry) {
	if _, exists := idx.entries[entry.TypeIdentifier]; exists {
		return
	}

	idx.entries[entry.TypeIdentifier] = entry
	idx.order = append(idx.order, entry.TypeIdentifier)

	for _, category := range entry.Categories {
		key := strings.ToLower(category)
		idx.categories[key] = append(idx.categories[key], entry.TypeIdentifier)
	}

	if entry.IsTrigger {
		idx.triggers = append(idx.triggers, entry.TypeIdentifier)
	}

	// Slugged display names ("HTTP Request" -> "http-request") double as
	// aliases so hyphenated lookups resolve too.
	if entry.DisplayName != "" {
		slugged := slug.Make(entry.DisplayName)
		if _, exists := idx.aliases[slugged]; !exists {
			idx.aliases[slugged] = entry.TypeIdentifier
		}
	}
}

func (idx *Index) applyCuratedAliases() {
	for alias, machineName := range curatedAliases {
		for _, typeID := range idx.order {
			if idx.entries[typeID].Name == machineName {
				if _, exists := idx.aliases[alias]; !exists {
					idx.aliases[alias] = typeID
				}
				break
			}
		}
	}
}

// Count returns the number of indexed node types.
func (idx *Index) Count() int {
	return len(idx.order)
}

// GetDetails resolves a type identifier, machine name, display name or alias
// (all case-insensitive) to its full entry. Partial entries get their
// parameters extracted from source on first hit.
func (idx *Index) GetDetails(idOrAlias string) (domain.NodeTypeEntry, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	entry, ok := idx.resolve(idOrAlias)
	if !ok {
		return domain.NodeTypeEntry{}, domain.ErrNodeTypeNotFound
	}

	if entry.Partial && entry.SourcePath != "" {
		if hydrated, _, ok := idx.extractor.ExtractDir(filepath.Dir(entry.SourcePath)); ok {
			hydrated.TypeIdentifier = entry.TypeIdentifier
			*entry = hydrated
		}
	}

	return *entry, nil
}

// resolve looks an entry up by identifier, machine name, display name or
// alias. Callers must hold idx.mu.
func (idx *Index) resolve(idOrAlias string) (*domain.NodeTypeEntry, bool) {
	if entry, ok := idx.entries[idOrAlias]; ok {
		return entry, true
	}

	lowered := strings.ToLower(idOrAlias)

	if typeID, ok := idx.aliases[lowered]; ok {
		return idx.entries[typeID], true
	}

	for _, typeID := range idx.order {
		entry := idx.entries[typeID]
		if strings.EqualFold(entry.TypeIdentifier, idOrAlias) ||
			strings.EqualFold(entry.Name, idOrAlias) ||
			strings.EqualFold(entry.DisplayName, idOrAlias) {
			return entry, true
		}
	}

	return nil, false
}

// TriggerTypes returns every trigger-capable node type.
func (idx *Index) TriggerTypes() []domain.NodeSummary {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	summaries := make([]domain.NodeSummary, 0, len(idx.triggers))
	for _, typeID := range idx.triggers {
		summaries = append(summaries, idx.entries[typeID].Summary())
	}

	return summaries
}

// CategoryTypes returns the type identifiers registered under a category tag.
func (idx *Index) CategoryTypes(category string) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.categories[strings.ToLower(category)]
}

// OperationSchema returns the pre-captured output-shape snapshot for a
// (type, resource, operation) triple. Absence is expected for most
// operations and surfaces as ErrSchemaNotFound.
func (idx *Index) OperationSchema(idOrAlias, resource, operation string) (json.RawMessage, error) {
	idx.mu.Lock()
	entry, ok := idx.resolve(idOrAlias)
	if !ok {
		idx.mu.Unlock()
		return nil, domain.ErrNodeTypeNotFound
	}
	hasSchemas, sourcePath := entry.HasSchemas, entry.SourcePath
	idx.mu.Unlock()

	if !hasSchemas || sourcePath == "" {
		return nil, domain.ErrSchemaNotFound
	}

	schemaDir := filepath.Join(filepath.Dir(sourcePath), schemaDirName)

	candidates := []string{}
	if resource != "" && operation != "" {
		candidates = append(candidates, fmt.Sprintf("%s.%s.json", resource, operation))
	}
	if operation != "" {
		candidates = append(candidates, operation+".json")
	}
	candidates = append(candidates, "default.json")

	for _, name := range candidates {
		data, err := os.ReadFile(filepath.Join(schemaDir, name))
		if err == nil {
			return json.RawMessage(data), nil
		}
	}

	return nil, domain.ErrSchemaNotFound
}

// Snapshot captures the index for persistence.
func (idx *Index) Snapshot() Snapshot {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	entries := make(map[string]domain.NodeTypeEntry, len(idx.entries))
	for typeID, entry := range idx.entries {
		entries[typeID] = *entry
	}

	return Snapshot{
		GeneratedAt: time.Now().UTC(),
		Count:       len(idx.order),
		Order:       idx.order,
		Entries:     entries,
		Categories:  idx.categories,
		Triggers:    idx.triggers,
		Aliases:     idx.aliases,
	}
}

func fromSnapshot(snapshot *Snapshot, extractor *Extractor) *Index {
	idx := newIndex(extractor)

	order := snapshot.Order
	if len(order) == 0 {
		for typeID := range snapshot.Entries {
			order = append(order, typeID)
		}
	}

	for _, typeID := range order {
		entry, ok := snapshot.Entries[typeID]
		if !ok {
			continue
		}
		copied := entry
		idx.entries[typeID] = &copied
		idx.order = append(idx.order, typeID)
	}

	idx.categories = snapshot.Categories
	if idx.categories == nil {
		idx.categories = map[string][]string{}
	}
	idx.triggers = snapshot.Triggers
	idx.aliases = snapshot.Aliases
	if idx.aliases == nil {
		idx.aliases = map[string]string{}
	}

	return idx
}
