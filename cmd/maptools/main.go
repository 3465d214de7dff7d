package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gridrealm/internal/behavior"
	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "validate":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools validate <maps-dir>")
			os.Exit(1)
		}
		os.Exit(runValidate(args[0]))
	case "viz":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools viz <map-file>")
			os.Exit(1)
		}
		runViz(args[0])
	case "stats":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools stats <map-file>")
			os.Exit(1)
		}
		runStats(args[0])
	case "all":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools all <maps-dir>")
			os.Exit(1)
		}
		os.Exit(runAll(args[0]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: maptools <command> <path>

Commands:
  validate <maps-dir>   Validate all maps in directory
  viz      <map-file>   Render map as colored ASCII art
  stats    <map-file>   Show tile distribution and walkable %
  all      <maps-dir>   Run validate + viz + stats for all maps`)
}

// --- validate ---

// runValidate loads the catalog, which rejects malformed maps, then lints
// what the loader accepts but play would trip over: entries and warp
// targets on blocked tiles, NPCs spawned into walls, and behavior names
// nothing registers.
func runValidate(dir string) int {
	catalog, err := maps.LoadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		return 1
	}
	registry := behavior.Builtins()

	problems := 0
	report := func(format string, args ...any) {
		fmt.Printf("  ERROR: "+format+"\n", args...)
		problems++
	}

	for _, id := range catalog.IDs() {
		d, _ := catalog.Get(id)
		fmt.Printf("Validating %q...\n", id)
		before := problems

		if !walkable(d, d.Entry.X, d.Entry.Y) {
			report("entry (%d,%d) is not walkable", d.Entry.X, d.Entry.Y)
		}

		for y := 0; y < d.Dims.Rows; y++ {
			for x := 0; x < d.Dims.Cols; x++ {
				if ref, ok := d.TriggerAt(x, y); ok {
					if _, ok := registry.Trigger(ref.Name); !ok {
						report("trigger at (%d,%d) names unknown behavior %q", x, y, ref.Name)
					}
					if ref.Name == maps.WarpBehavior {
						checkWarp(catalog, ref, x, y, report)
					}
				}
				if ref, ok := d.ActionAt(x, y); ok {
					if _, ok := registry.Action(ref.Name); !ok {
						report("action at (%d,%d) names unknown behavior %q", x, y, ref.Name)
					}
				}
				if tpl, ok := d.NPCAt(x, y); ok {
					if !walkable(d, x, y) {
						report("npc %q at (%d,%d) spawns on a blocked tile", tpl.Kind, x, y)
					}
					if a, _ := tpl.Props["action"].(string); a != "" {
						if _, ok := registry.Action(a); !ok {
							report("npc %q at (%d,%d) declares unknown action %q", tpl.Kind, x, y, a)
						}
					}
				}
			}
		}
		for event, ref := range d.Hooks {
			if _, ok := registry.Hook(ref.Name); !ok {
				report("hook %s names unknown behavior %q", event, ref.Name)
			}
		}

		if problems == before {
			fmt.Printf("  OK (%dx%d, %d triggers, %d actions, %d npc kinds)\n",
				d.Dims.Cols, d.Dims.Rows, len(d.Triggers), len(d.Actions), len(d.NPCTemplates))
		}
	}

	if problems > 0 {
		fmt.Printf("\n%d error(s) found\n", problems)
		return 1
	}
	fmt.Printf("\nAll %d maps valid\n", catalog.Len())
	return 0
}

func checkWarp(catalog *maps.Catalog, ref maps.BehaviorRef, x, y int, report func(string, ...any)) {
	target, ok := catalog.Get(ref.Param("map"))
	if !ok {
		return // the catalog already rejects unknown targets
	}
	tx, errX := strconv.Atoi(ref.Param("x"))
	ty, errY := strconv.Atoi(ref.Param("y"))
	if errX != nil || errY != nil {
		tx, ty = target.Entry.X, target.Entry.Y
	}
	if !walkable(target, tx, ty) {
		report("warp at (%d,%d) targets non-walkable tile (%d,%d) in %q", x, y, tx, ty, target.ID)
	}
}

func walkable(d *maps.Definition, x, y int) bool {
	return d.InBounds(x, y) && maps.Tile(maps.TileCodeAt(d, x, y)).Walkable
}

// --- viz ---

// ansiColor returns the ANSI escape for the given code.
func ansiColor(code int) string {
	return fmt.Sprintf("\033[%dm", code)
}

func runViz(path string) {
	d, err := maps.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := maps.Validate(d); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s %q (%dx%d)\n", d.ID, d.Title, d.Dims.Cols, d.Dims.Rows)

	// NPC glyphs come from the same kind table the game uses.
	store := entity.NewStore(nil)
	for y := 0; y < d.Dims.Rows; y++ {
		for x := 0; x < d.Dims.Cols; x++ {
			if tpl, ok := d.NPCAt(x, y); ok {
				npc := store.Create(tpl.Kind, tpl.Props)
				fmt.Print("\033[1m", ansiColor(npc.Fg), string(npc.Glyph), "\033[0m")
				continue
			}
			tile := maps.Tile(maps.TileCodeAt(d, x, y))
			switch {
			case x == d.Entry.X && y == d.Entry.Y:
				fmt.Print("\033[1;97m", "@", "\033[0m")
			case maps.TriggerCodeAt(d, x, y) != 0:
				fmt.Print("\033[7m", ansiColor(tile.Fg), string(tile.Char), "\033[0m")
			default:
				fmt.Print(ansiColor(tile.Fg), string(tile.Char), "\033[0m")
			}
		}
		fmt.Println()
	}

	fmt.Printf("\nEntry: (%d,%d) facing %s\n", d.Entry.X, d.Entry.Y, orNone(string(d.Entry.Facing)))
	for y := 0; y < d.Dims.Rows; y++ {
		for x := 0; x < d.Dims.Cols; x++ {
			if ref, ok := d.TriggerAt(x, y); ok {
				fmt.Printf("Trigger: (%d,%d) → %s\n", x, y, describe(ref))
			}
			if ref, ok := d.ActionAt(x, y); ok {
				fmt.Printf("Action:  (%d,%d) → %s\n", x, y, describe(ref))
			}
		}
	}
	for _, event := range sortedKeys(d.Hooks) {
		fmt.Printf("Hook:    %s → %s\n", event, describe(d.Hooks[event]))
	}
}

func describe(ref maps.BehaviorRef) string {
	if len(ref.Params) == 0 {
		return ref.Name
	}
	parts := make([]string, 0, len(ref.Params))
	for _, k := range sortedKeys(ref.Params) {
		parts = append(parts, k+"="+ref.Params[k])
	}
	return ref.Name + " (" + strings.Join(parts, ", ") + ")"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orNone(s string) string {
	if s == "" {
		return "(unchanged)"
	}
	return s
}

// --- stats ---

func runStats(path string) {
	d, err := maps.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	total := d.Dims.Cells()
	fmt.Printf("%s (%dx%d = %d tiles)\n\n", d.ID, d.Dims.Cols, d.Dims.Rows, total)

	counts := make(map[string]int)
	walkableCells, triggers, actions, npcs := 0, 0, 0, 0
	for y := 0; y < d.Dims.Rows; y++ {
		for x := 0; x < d.Dims.Cols; x++ {
			tile := maps.Tile(maps.TileCodeAt(d, x, y))
			counts[tile.Name]++
			if tile.Walkable {
				walkableCells++
			}
			if maps.TriggerCodeAt(d, x, y) != 0 {
				triggers++
			}
			if maps.ActionCodeAt(d, x, y) != 0 {
				actions++
			}
			if maps.NPCSpawnCodeAt(d, x, y) != "" {
				npcs++
			}
		}
	}

	type entry struct {
		name  string
		count int
	}
	var sorted []entry
	for name, count := range counts {
		sorted = append(sorted, entry{name, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})

	for _, e := range sorted {
		pct := float64(e.count) / float64(total) * 100
		bar := strings.Repeat("█", int(pct/2))
		fmt.Printf("  %-12s %4d (%5.1f%%) %s\n", e.name, e.count, pct, bar)
	}

	fmt.Printf("\nWalkable: %d/%d (%.1f%%)\n", walkableCells, total, float64(walkableCells)/float64(total)*100)
	fmt.Printf("Triggers: %d cells\n", triggers)
	fmt.Printf("Actions:  %d cells\n", actions)
	fmt.Printf("NPCs:     %d\n", npcs)
}

// --- all ---

func runAll(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading directory: %v\n", err)
		return 1
	}

	fmt.Println("=== VALIDATE ===")
	code := runValidate(dir)
	if code != 0 {
		return code
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fmt.Printf("\n=== VIZ: %s ===\n", entry.Name())
		runViz(path)
		fmt.Printf("\n=== STATS: %s ===\n", entry.Name())
		runStats(path)
	}

	return 0
}
