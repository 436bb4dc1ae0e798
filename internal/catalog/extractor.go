package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

const (
	definitionSuffix = ".node.ts"
	manifestSuffix   = ".node.json"
	schemaDirName    = "__schema__"
)

// selector parameters configure which resource/operation/auth path is
// active; they are menus, not node configuration, so they are suppressed
// from the parameter list.
var selectorParams = map[string]bool{
	"resource":       true,
	"operation":      true,
	"authentication": true,
}

// Extractor scans a node-source corpus and produces NodeTypeEntry records.
// Extraction never fails a whole entry: any field that cannot be scanned
// degrades to its zero value.
type Extractor struct {
	Root      string
	Namespace string
}

func NewExtractor(root, namespace string) *Extractor {
	if namespace == "" {
		namespace = "n8n-nodes-base"
	}

	return &Extractor{Root: root, Namespace: namespace}
}

// manifest is the optional machine-readable sibling of a definition file.
type manifest struct {
	Node       string   `json:"node"`
	Categories []string `json:"categories"`
	Alias      []string `json:"alias"`
}

// ScanAll walks every leaf directory under Root that contains a definition
// file and extracts one entry per node type, in lexical corpus order.
// The returned alias map collects manifest-declared aliases.
func (e *Extractor) ScanAll() ([]domain.NodeTypeEntry, map[string]string, error) {
	dirs := map[string]bool{}

	err := filepath.WalkDir(e.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), definitionSuffix) {
			return nil
		}

		dir := filepath.Dir(path)
		if base := filepath.Base(dir); isVersionDir(base) {
			dir = filepath.Dir(dir)
		}
		dirs[dir] = true

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ordered := make([]string, 0, len(dirs))
	for dir := range dirs {
		ordered = append(ordered, dir)
	}
	sort.Strings(ordered)

	entries := []domain.NodeTypeEntry{}
	aliases := map[string]string{}

	for _, dir := range ordered {
		entry, manifestAliases, ok := e.ExtractDir(dir)
		if !ok {
			continue
		}

		entries = append(entries, entry)

		for _, alias := range manifestAliases {
			aliases[strings.ToLower(alias)] = entry.TypeIdentifier
		}
	}

	return entries, aliases, nil
}

// ScanNames discovers every node type identifier (plus display name and
// trigger-ness) without committing to the heavyweight metadata. The
// resulting entries are marked Partial and hydrate from source on first
// detail lookup.
func (e *Extractor) ScanNames() ([]domain.NodeTypeEntry, map[string]string, error) {
	full, aliases, err := e.ScanAll()
	if err != nil {
		return nil, nil, err
	}

	for i := range full {
		full[i].Credentials = nil
		full[i].Resources = nil
		full[i].Parameters = nil
		full[i].Partial = true
	}

	return full, aliases, nil
}

// ExtractDir extracts the node type defined in one leaf directory.
func (e *Extractor) ExtractDir(dir string) (domain.NodeTypeEntry, []string, bool) {
	primary, ok := primaryDefinitionFile(dir)
	if !ok {
		return domain.NodeTypeEntry{}, nil, false
	}

	src, err := os.ReadFile(primary)
	if err != nil {
		log.Warn().Err(err).Str("path", primary).Msg("failed to read node definition")
		return domain.NodeTypeEntry{}, nil, false
	}

	entry := e.extractEntry(string(src))
	entry.SourcePath = primary

	if entry.Name == "" {
		entry.Name = machineNameFromFile(primary)
	}
	if entry.DisplayName == "" {
		entry.DisplayName = entry.Name
	}

	entry.TypeIdentifier = e.Namespace + "." + entry.Name

	// A versioned node keeps its default-version marker in the root
	// wrapper file rather than the per-version definition.
	if rootVersion, ok := rootDefaultVersion(dir); ok {
		entry.Version = rootVersion
	}

	manifestAliases := e.applyManifest(dir, &entry)

	if info, err := os.Stat(filepath.Join(dir, schemaDirName)); err == nil && info.IsDir() {
		entry.HasSchemas = true
	}

	return entry, manifestAliases, true
}

// extractEntry scans one definition source for the description block and
// pulls every metadata field it can.
func (e *Extractor) extractEntry(src string) domain.NodeTypeEntry {
	entry := domain.NodeTypeEntry{Version: 1}

	block, ok := findBlock(src, "description")
	if !ok {
		log.Warn().Msg("node definition has no description block, keeping partial entry")
		entry.Partial = true
		return entry
	}

	var rawProperties, rawCredentials string

	for _, p := range scanPairs(block) {
		switch p.key {
		case "displayName":
			entry.DisplayName = unquote(p.value)
		case "name":
			entry.Name = unquote(p.value)
		case "description":
			entry.Description = unquote(p.value)
		case "group":
			entry.Categories = stringList(p.value)
		case "defaultVersion":
			if n, ok := parseNumber(p.value); ok {
				entry.Version = n
			}
		case "version":
			if versions := numberList(p.value); len(versions) > 0 {
				max := versions[0]
				for _, v := range versions[1:] {
					if v > max {
						max = v
					}
				}
				entry.Version = max
			} else if n, ok := parseNumber(p.value); ok {
				entry.Version = n
			}
		case "credentials":
			rawCredentials = p.value
		case "properties":
			rawProperties = p.value
		}
	}

	entry.Credentials = extractCredentials(rawCredentials)
	entry.Parameters, entry.Resources = extractParameters(rawProperties)
	entry.IsTrigger = isTriggerSource(src, entry)

	return entry
}

func extractCredentials(raw string) []domain.Credential {
	credentials := []domain.Credential{}

	for _, obj := range scanObjectArray(raw) {
		cred := domain.Credential{}
		for _, p := range obj {
			switch p.key {
			case "name":
				cred.Name = unquote(p.value)
			case "required":
				cred.Required, _ = parseBool(p.value)
			}
		}
		if cred.Name != "" {
			credentials = append(credentials, cred)
		}
	}

	return credentials
}

// extractParameters scans the properties array. Resource and operation
// selectors become the two-level resource -> operation menu; everything
// else becomes a Parameter, deduplicated by name keeping first occurrence.
func extractParameters(raw string) ([]domain.Parameter, []domain.Resource) {
	parameters := []domain.Parameter{}
	resources := []domain.Resource{}
	seen := map[string]bool{}

	resourceIndex := map[string]int{}

	for _, obj := range scanObjectArray(raw) {
		param := scanParameter(obj)

		switch {
		case strings.EqualFold(param.Name, "resource"):
			for _, opt := range param.Options {
				if _, exists := resourceIndex[opt.Value]; exists {
					continue
				}
				resourceIndex[opt.Value] = len(resources)
				resources = append(resources, domain.Resource{Name: opt.Name, Value: opt.Value})
			}
		case strings.EqualFold(param.Name, "operation"):
			ops := make([]domain.Operation, 0, len(param.Options))
			for _, opt := range param.Options {
				ops = append(ops, domain.Operation{Name: opt.Name, Value: opt.Value, Description: opt.Description})
			}

			owners := []string{}
			if param.ShowIf != nil {
				owners = param.ShowIf.Resources
			}
			if len(owners) == 0 && len(resources) == 0 {
				// Node without a resource menu: expose a synthetic
				// default resource carrying the operations.
				resourceIndex["default"] = len(resources)
				resources = append(resources, domain.Resource{Name: "Default", Value: "default"})
				owners = []string{"default"}
			}
			for _, owner := range owners {
				if idx, ok := resourceIndex[strings.ToLower(owner)]; ok {
					resources[idx].Operations = append(resources[idx].Operations, ops...)
				} else if idx, ok := resourceIndex[owner]; ok {
					resources[idx].Operations = append(resources[idx].Operations, ops...)
				}
			}
		case selectorParams[strings.ToLower(param.Name)]:
			// Authentication selectors are suppressed.
		case param.Name != "" && !seen[param.Name]:
			seen[param.Name] = true
			parameters = append(parameters, param)
		}
	}

	return parameters, resources
}

func scanParameter(obj []pair) domain.Parameter {
	param := domain.Parameter{Type: domain.ParameterType_String}

	var rawType string

	for _, p := range obj {
		switch p.key {
		case "name":
			param.Name = unquote(p.value)
		case "displayName":
			param.DisplayName = unquote(p.value)
		case "description":
			param.Description = unquote(p.value)
		case "required":
			param.Required, _ = parseBool(p.value)
		case "type":
			rawType = unquote(p.value)
		case "default":
			param.Default = scanDefault(p.value)
		case "options":
			for _, optObj := range scanObjectArray(p.value) {
				opt := domain.ParameterOption{}
				for _, op := range optObj {
					switch op.key {
					case "name":
						opt.Name = unquote(op.value)
					case "value":
						opt.Value = unquote(op.value)
					case "description":
						opt.Description = unquote(op.value)
					}
				}
				if opt.Name != "" || opt.Value != "" {
					param.Options = append(param.Options, opt)
				}
			}
		case "displayOptions":
			param.ShowIf = scanDisplayCondition(p.value)
		}
	}

	if rawType != "" {
		param.Type = domain.ParameterType(rawType)
	}
	if param.DisplayName == "" {
		param.DisplayName = param.Name
	}

	return param
}

func scanDefault(raw string) any {
	raw = strings.TrimSpace(raw)

	if v, ok := parseBool(raw); ok {
		return v
	}
	if n, ok := parseNumber(raw); ok {
		return n
	}
	if unquoted := unquote(raw); unquoted != raw {
		return unquoted
	}
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		// Structured defaults are kept as raw text; callers only show them.
		return raw
	}

	return nil
}

// scanDisplayCondition reads `displayOptions: { show: { resource: [...],
// operation: [...] } }`.
func scanDisplayCondition(raw string) *domain.DisplayCondition {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil
	}

	for _, p := range scanPairs(raw[1 : len(raw)-1]) {
		if p.key != "show" {
			continue
		}

		inner := strings.TrimSpace(p.value)
		if !strings.HasPrefix(inner, "{") || !strings.HasSuffix(inner, "}") {
			return nil
		}

		cond := &domain.DisplayCondition{}
		for _, sp := range scanPairs(inner[1 : len(inner)-1]) {
			switch sp.key {
			case "resource":
				cond.Resources = stringList(sp.value)
			case "operation":
				cond.Operations = stringList(sp.value)
			}
		}

		if len(cond.Resources) == 0 && len(cond.Operations) == 0 {
			return nil
		}

		return cond
	}

	return nil
}

func isTriggerSource(src string, entry domain.NodeTypeEntry) bool {
	for _, category := range entry.Categories {
		if strings.EqualFold(category, "trigger") {
			return true
		}
	}
	if strings.HasSuffix(entry.Name, "Trigger") {
		return true
	}

	return strings.Contains(src, "webhookMethods") ||
		strings.Contains(src, "async trigger(") ||
		strings.Contains(src, "async poll(")
}

// primaryDefinitionFile picks the definition to extract: the unversioned
// root file, else the highest-numbered version subdirectory's file, else
// any definition file in the tree.
func primaryDefinitionFile(dir string) (string, bool) {
	rootFiles, _ := filepath.Glob(filepath.Join(dir, "*"+definitionSuffix))
	if len(rootFiles) > 0 {
		sort.Strings(rootFiles)
		return rootFiles[0], true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	bestVersion := -1
	bestDir := ""
	for _, d := range entries {
		if !d.IsDir() {
			continue
		}
		if v, ok := versionDirNumber(d.Name()); ok && v > bestVersion {
			bestVersion = v
			bestDir = filepath.Join(dir, d.Name())
		}
	}

	if bestDir != "" {
		versioned, _ := filepath.Glob(filepath.Join(bestDir, "*"+definitionSuffix))
		if len(versioned) > 0 {
			sort.Strings(versioned)
			return versioned[0], true
		}
	}

	var any string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && any == "" && strings.HasSuffix(d.Name(), definitionSuffix) {
			any = path
		}
		return nil
	})

	return any, any != ""
}

// rootDefaultVersion scans non-primary root files for an explicit
// defaultVersion marker (versioned nodes declare it in a wrapper).
func rootDefaultVersion(dir string) (float64, bool) {
	files, _ := filepath.Glob(filepath.Join(dir, "*.ts"))

	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			continue
		}

		idx := strings.Index(string(src), "defaultVersion")
		if idx < 0 {
			continue
		}

		rest := string(src)[idx:]
		if colon := strings.IndexByte(rest, ':'); colon >= 0 {
			end := strings.IndexAny(rest[colon+1:], ",\n}")
			if end < 0 {
				end = len(rest) - colon - 1
			}
			if n, ok := parseNumber(rest[colon+1 : colon+1+end]); ok {
				return n, true
			}
		}
	}

	return 0, false
}

func (e *Extractor) applyManifest(dir string, entry *domain.NodeTypeEntry) []string {
	files, _ := filepath.Glob(filepath.Join(dir, "*"+manifestSuffix))
	if len(files) == 0 {
		return nil
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		return nil
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		log.Warn().Err(err).Str("path", files[0]).Msg("malformed node manifest, ignoring")
		return nil
	}

	for _, category := range m.Categories {
		if !containsFold(entry.Categories, category) {
			entry.Categories = append(entry.Categories, category)
		}
	}

	return m.Alias
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func isVersionDir(name string) bool {
	_, ok := versionDirNumber(name)
	return ok
}

func versionDirNumber(name string) (int, bool) {
	if len(name) < 2 || (name[0] != 'v' && name[0] != 'V') {
		return 0, false
	}

	n, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0, false
	}

	return n, true
}

func machineNameFromFile(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, definitionSuffix)

	if base == "" {
		return base
	}

	return strings.ToLower(base[:1]) + base[1:]
}
