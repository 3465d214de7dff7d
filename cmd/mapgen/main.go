package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

func main() {
	genType := flag.String("type", "wilderness", "generator type (wilderness)")
	seed := flag.Uint64("seed", 0, "random seed (0 = random)")
	size := flag.String("size", "100x80", "map size as WxH")
	id := flag.String("id", "wilderness", "map id")
	title := flag.String("title", "The Wilds", "map title")
	npcs := flag.Int("npcs", 0, "number of wandering dogs to place")
	exit := flag.String("exit", "", "map id the first trail end warps to")
	out := flag.String("out", "", "output file (default: stdout)")
	flag.Parse()

	if *genType != "wilderness" {
		fmt.Fprintf(os.Stderr, "Error: unknown generator type %q (available: wilderness)\n", *genType)
		os.Exit(1)
	}

	w, h, err := parseSize(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	fmt.Fprintf(os.Stderr, "Generating %dx%d wilderness map %q (seed %d)...\n", w, h, *id, *seed)

	d := maps.Blank(*id, w, h)
	d.Title = *title
	d.Hooks[maps.HookEnterMap] = maps.BehaviorRef{Name: "announce-map"}

	gen := newWilderness(d, *seed, os.Stderr)
	ends := gen.generate()
	fmt.Fprintf(os.Stderr, "Entry: (%d, %d)\n", d.Entry.X, d.Entry.Y)

	if *exit != "" {
		addExit(d, ends[0], *exit)
	}
	if *npcs > 0 {
		placed := gen.spawnNPCs("d", maps.NPCTemplate{
			Kind: entity.KindDog,
			Props: map[string]any{
				"ai":         "random",
				"aiTicks":    0,
				"thinkSpeed": 10,
				"action":     "talk",
				"line":       "Woof!",
			},
		}, *npcs, ends)
		fmt.Fprintf(os.Stderr, "NPCs: placed %d of %d\n", placed, *npcs)
	}

	if err := maps.Validate(d); err != nil {
		fmt.Fprintf(os.Stderr, "Error: generated map is invalid: %v\n", err)
		os.Exit(1)
	}
	data, err := maps.Encode(d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding map: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	if *out == "" {
		os.Stdout.Write(data)
	} else {
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d bytes)\n", *out, len(data))
	}

	printDistribution(d)
}

// addExit puts a warp trigger on a trail end. The target's own entry
// point is used on arrival.
func addExit(d *maps.Definition, at point, target string) {
	if !maps.Tile(maps.TileCodeAt(d, at.x, at.y)).Walkable {
		fmt.Fprintf(os.Stderr, "Warning: trail end (%d, %d) is blocked, no exit placed\n", at.x, at.y)
		return
	}
	d.TriggerGrid[maps.Index(d, at.x, at.y)] = 1
	d.Triggers[1] = maps.BehaviorRef{Name: maps.WarpBehavior, Params: map[string]string{"map": target}}
	fmt.Fprintf(os.Stderr, "Exit: (%d, %d) -> %s\n", at.x, at.y, target)
}

func printDistribution(d *maps.Definition) {
	counts := make(map[int]int)
	for _, code := range d.TileGrid {
		counts[code]++
	}
	codes := make([]int, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	total := d.Dims.Cells()
	fmt.Fprintf(os.Stderr, "\nTile distribution:\n")
	for _, code := range codes {
		c := counts[code]
		fmt.Fprintf(os.Stderr, "  %-15s %5d (%5.1f%%)\n", maps.Tile(code).Name, c, float64(c)/float64(total)*100)
	}
}

func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q (expected WxH)", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w < 10 {
		return 0, 0, fmt.Errorf("invalid width %q (minimum 10)", parts[0])
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h < 10 {
		return 0, 0, fmt.Errorf("invalid height %q (minimum 10)", parts[1])
	}
	return w, h, nil
}
