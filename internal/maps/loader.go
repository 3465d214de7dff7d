package maps

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// fileMap is the on-disk JSON format. Grids are written as row strings,
// one character per cell.
type fileMap struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title,omitempty"`
	Background   string                 `json:"background,omitempty"`
	Tiles        []string               `json:"tiles"`
	TriggerTiles []string               `json:"trigger_tiles,omitempty"`
	ActionTiles  []string               `json:"action_tiles,omitempty"`
	NPCTiles     []string               `json:"npc_tiles,omitempty"`
	Triggers     map[string]BehaviorRef `json:"triggers,omitempty"`
	Actions      map[string]BehaviorRef `json:"actions,omitempty"`
	NPCs         map[string]NPCTemplate `json:"npcs,omitempty"`
	Entry        EntryPoint             `json:"entry"`
	Hooks        map[string]BehaviorRef `json:"hooks,omitempty"`
}

// Decode parses one map file.
func Decode(data []byte) (*Definition, error) {
	var fm fileMap
	if err := json.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("parse map JSON: %w", err)
	}
	if fm.ID == "" {
		return nil, &DefinitionError{Field: "id", Reason: "empty map id"}
	}
	if len(fm.Tiles) == 0 {
		return nil, definitionErrorf(fm.ID, "tiles", "no rows")
	}

	rows := len(fm.Tiles)
	cols := utf8.RuneCountInString(fm.Tiles[0])
	d := &Definition{
		ID:           fm.ID,
		Title:        fm.Title,
		Background:   fm.Background,
		Dims:         Dimensions{Rows: rows, Cols: cols},
		Triggers:     make(map[int]BehaviorRef, len(fm.Triggers)),
		Actions:      make(map[int]BehaviorRef, len(fm.Actions)),
		NPCTemplates: fm.NPCs,
		Entry:        fm.Entry,
		Hooks:        fm.Hooks,
	}
	if d.Title == "" {
		d.Title = d.ID
	}
	if d.NPCTemplates == nil {
		d.NPCTemplates = map[string]NPCTemplate{}
	}

	var errs []error
	var err error
	if d.TileGrid, err = decodeCodes(fm.ID, "tiles", fm.Tiles, rows, cols); err != nil {
		errs = append(errs, err)
	}
	if d.TriggerGrid, err = decodeCodes(fm.ID, "trigger_tiles", fm.TriggerTiles, rows, cols); err != nil {
		errs = append(errs, err)
	}
	if d.ActionGrid, err = decodeCodes(fm.ID, "action_tiles", fm.ActionTiles, rows, cols); err != nil {
		errs = append(errs, err)
	}
	if d.NPCSpawnGrid, err = decodeSpawns(fm.ID, fm.NPCTiles, rows, cols); err != nil {
		errs = append(errs, err)
	}

	if err := decodeTable(fm.ID, "triggers", fm.Triggers, d.Triggers); err != nil {
		errs = append(errs, err)
	}
	if err := decodeTable(fm.ID, "actions", fm.Actions, d.Actions); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return d, nil
}

// decodeCodes flattens row strings into a row-major code grid. An omitted
// layer becomes all zeros. Every row must be exactly cols cells wide.
func decodeCodes(mapID, field string, lines []string, rows, cols int) ([]int, error) {
	if len(lines) == 0 {
		return make([]int, rows*cols), nil
	}
	if err := checkRows(mapID, field, lines, rows, cols); err != nil {
		return nil, err
	}
	grid := make([]int, 0, rows*cols)
	for y, line := range lines {
		x := 0
		for _, r := range line {
			code, ok := decodeCode(r)
			if !ok {
				return nil, definitionErrorf(mapID, field, "invalid code %q at (%d,%d)", r, x, y)
			}
			grid = append(grid, code)
			x++
		}
	}
	return grid, nil
}

// checkRows rejects layers whose shape differs from the terrain, which
// would otherwise shift every later cell to the wrong coordinates.
func checkRows(mapID, field string, lines []string, rows, cols int) error {
	if len(lines) != rows {
		return definitionErrorf(mapID, field, "has %d rows, expected %d", len(lines), rows)
	}
	for y, line := range lines {
		if n := utf8.RuneCountInString(line); n != cols {
			return definitionErrorf(mapID, field, "row %d has %d cells, expected %d", y, n, cols)
		}
	}
	return nil
}

// decodeCode maps '0'-'9' to 0-9 and 'a'-'z' to 10-35.
func decodeCode(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'z':
		return int(r-'a') + 10, true
	}
	return 0, false
}

// decodeSpawns flattens the NPC layer; ' ' and '.' are blank cells.
func decodeSpawns(mapID string, lines []string, rows, cols int) ([]string, error) {
	if len(lines) == 0 {
		return make([]string, rows*cols), nil
	}
	if err := checkRows(mapID, "npc_tiles", lines, rows, cols); err != nil {
		return nil, err
	}
	grid := make([]string, 0, rows*cols)
	for _, line := range lines {
		for _, r := range line {
			if isBlankSpawn(r) {
				grid = append(grid, "")
			} else {
				grid = append(grid, string(r))
			}
		}
	}
	return grid, nil
}

func isBlankSpawn(r rune) bool {
	return r == ' ' || r == '.'
}

func decodeTable(mapID, field string, in map[string]BehaviorRef, out map[int]BehaviorRef) error {
	for k, ref := range in {
		code, err := strconv.Atoi(k)
		if err != nil || code <= 0 {
			return definitionErrorf(mapID, field, "invalid code key %q", k)
		}
		out[code] = ref
	}
	return nil
}

// Encode writes d in the map file format. Empty layers are omitted.
func Encode(d *Definition) ([]byte, error) {
	fm := fileMap{
		ID:         d.ID,
		Title:      d.Title,
		Background: d.Background,
		NPCs:       d.NPCTemplates,
		Entry:      d.Entry,
		Hooks:      d.Hooks,
	}
	var err error
	if fm.Tiles, err = encodeCodes(d, "tiles", d.TileGrid, true); err != nil {
		return nil, err
	}
	if fm.TriggerTiles, err = encodeCodes(d, "trigger_tiles", d.TriggerGrid, false); err != nil {
		return nil, err
	}
	if fm.ActionTiles, err = encodeCodes(d, "action_tiles", d.ActionGrid, false); err != nil {
		return nil, err
	}
	if fm.NPCTiles, err = encodeSpawns(d); err != nil {
		return nil, err
	}
	fm.Triggers = encodeTable(d.Triggers)
	fm.Actions = encodeTable(d.Actions)
	if len(fm.NPCs) == 0 {
		fm.NPCs = nil
	}
	if len(fm.Hooks) == 0 {
		fm.Hooks = nil
	}
	return json.MarshalIndent(fm, "", "  ")
}

func encodeCodes(d *Definition, field string, grid []int, always bool) ([]string, error) {
	if len(grid) != d.Dims.Cells() {
		return nil, definitionErrorf(d.ID, field, "grid has %d cells, want %d", len(grid), d.Dims.Cells())
	}
	used := always
	lines := make([]string, d.Dims.Rows)
	row := make([]byte, d.Dims.Cols)
	for y := 0; y < d.Dims.Rows; y++ {
		for x := 0; x < d.Dims.Cols; x++ {
			code := grid[x+y*d.Dims.Cols]
			switch {
			case code >= 0 && code <= 9:
				row[x] = byte('0' + code)
			case code >= 10 && code <= 35:
				row[x] = byte('a' + code - 10)
			default:
				return nil, definitionErrorf(d.ID, field, "code %d at (%d,%d) has no single-character form", code, x, y)
			}
			if code != 0 {
				used = true
			}
		}
		lines[y] = string(row)
	}
	if !used {
		return nil, nil
	}
	return lines, nil
}

// encodeSpawns writes the NPC layer. Map files hold one character per
// cell, so every spawn key must be a single non-blank rune.
func encodeSpawns(d *Definition) ([]string, error) {
	used := false
	lines := make([]string, d.Dims.Rows)
	for y := 0; y < d.Dims.Rows; y++ {
		var b strings.Builder
		for x := 0; x < d.Dims.Cols; x++ {
			key := ""
			if i := x + y*d.Dims.Cols; i < len(d.NPCSpawnGrid) {
				key = d.NPCSpawnGrid[i]
			}
			if key == "" {
				b.WriteByte(' ')
				continue
			}
			r, size := utf8.DecodeRuneInString(key)
			if size != len(key) || isBlankSpawn(r) {
				return nil, definitionErrorf(d.ID, "npc_tiles", "spawn key %q at (%d,%d) is not a single character", key, x, y)
			}
			b.WriteString(key)
			used = true
		}
		lines[y] = b.String()
	}
	if !used {
		return nil, nil
	}
	return lines, nil
}

func encodeTable(in map[int]BehaviorRef) map[string]BehaviorRef {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]BehaviorRef, len(in))
	for code, ref := range in {
		out[strconv.Itoa(code)] = ref
	}
	return out
}

// LoadFile reads a JSON map file from disk.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map file: %w", err)
	}
	return Decode(data)
}

// LoadDir scans a directory for *.json files and builds a validated catalog.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read maps directory: %w", err)
	}

	var defs []*Definition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		d, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		defs = append(defs, d)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMaps, dir)
	}
	return NewCatalog(defs...)
}

// Blank returns an all-grass map of the given size with empty trigger,
// action and NPC layers and the entry point in the middle.
func Blank(id string, cols, rows int) *Definition {
	n := cols * rows
	return &Definition{
		ID:           id,
		Title:        id,
		Dims:         Dimensions{Rows: rows, Cols: cols},
		TileGrid:     make([]int, n),
		TriggerGrid:  make([]int, n),
		ActionGrid:   make([]int, n),
		NPCSpawnGrid: make([]string, n),
		Triggers:     map[int]BehaviorRef{},
		Actions:      map[int]BehaviorRef{},
		NPCTemplates: map[string]NPCTemplate{},
		Hooks:        map[string]BehaviorRef{},
		Entry:        EntryPoint{X: cols / 2, Y: rows / 2, Facing: FacingDown},
	}
}

// DefaultDefinition returns a walled fallback map used when no map files
// are available.
func DefaultDefinition() *Definition {
	w, h := 30, 15
	d := Blank("default", w, h)
	d.Title = "Default"
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || x == w-1 || y == 0 || y == h-1 {
				d.TileGrid[x+y*w] = TileWall
			}
		}
	}
	return d
}
