package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"gridrealm/internal/maps"
)

type point struct{ x, y int }

var dirs4 = [4]point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// wilderness fills the terrain layer of a blank definition.
type wilderness struct {
	d    *maps.Definition
	rng  *rand.Rand
	seed uint64
	log  io.Writer
}

func newWilderness(d *maps.Definition, seed uint64, log io.Writer) *wilderness {
	return &wilderness{
		d:    d,
		rng:  rand.New(rand.NewPCG(seed, seed+100)),
		seed: seed,
		log:  log,
	}
}

func (g *wilderness) cols() int { return g.d.Dims.Cols }
func (g *wilderness) rows() int { return g.d.Dims.Rows }

func (g *wilderness) tile(x, y int) int { return maps.TileCodeAt(g.d, x, y) }

func (g *wilderness) set(x, y, code int) { g.d.TileGrid[maps.Index(g.d, x, y)] = code }

func (g *wilderness) walkable(x, y int) bool {
	return g.d.InBounds(x, y) && maps.Tile(g.tile(x, y)).Walkable
}

func (g *wilderness) interior(x, y int) bool {
	return x >= 1 && x < g.cols()-1 && y >= 1 && y < g.rows()-1
}

// generate shapes terrain from noise, carves trails out from the middle,
// joins or fills disconnected pockets and places the entry point. It
// returns the trail ends, which lie just inside the map border.
func (g *wilderness) generate() []point {
	elev := NewSimplex(g.seed)
	moist := NewSimplex(g.seed + 1)
	detail := NewSimplex(g.seed + 2)

	for y := 0; y < g.rows(); y++ {
		for x := 0; x < g.cols(); x++ {
			fx, fy := float64(x), float64(y)
			g.set(x, y, classify(
				elev.Octaves(fx, fy, 0.02, 4),
				moist.Octaves(fx, fy, 0.03, 3),
				detail.Octaves(fx, fy, 0.1, 2),
			))
		}
	}
	g.border(elev)

	start := g.nearestWalkable(g.cols()/2, g.rows()/2)
	ends := g.carveTrails(start)
	g.connect(start)

	spawn := g.findSpawn()
	g.d.Entry = maps.EntryPoint{X: spawn.x, Y: spawn.y, Facing: maps.FacingDown}
	return ends
}

func classify(elev, moist, detail float64) int {
	switch {
	case elev < 0.22:
		return maps.TileWater
	case elev < 0.30:
		return maps.TileSand
	case elev < 0.42:
		if moist > 0.6 {
			return maps.TileFlowers
		}
		return maps.TileGrass
	case elev < 0.72:
		if moist > 0.55 || (moist > 0.35 && detail > 0.6) {
			return maps.TileTree
		}
		return maps.TileGrass
	default:
		return maps.TileWall
	}
}

// border closes the outer ring and roughens a band inside it so the edge
// reads as forest or cliff rather than a straight wall.
func (g *wilderness) border(elev *Simplex) {
	const depth = 3
	for y := 0; y < g.rows(); y++ {
		for x := 0; x < g.cols(); x++ {
			fx, fy := float64(x), float64(y)
			rock := elev.Octaves(fx, fy, 0.02, 4) >= 0.7
			edge := maps.TileTree
			if rock {
				edge = maps.TileWall
			}

			if !g.interior(x, y) {
				g.set(x, y, edge)
				continue
			}
			dist := min(x, y, g.cols()-1-x, g.rows()-1-y)
			if dist >= depth || !g.walkable(x, y) {
				continue
			}
			if elev.Octaves(fx*2, fy*2, 0.08, 2) < float64(depth-dist)*0.3 {
				g.set(x, y, edge)
			}
		}
	}
}

func (g *wilderness) nearestWalkable(cx, cy int) point {
	for r := 0; r < max(g.cols(), g.rows()); r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				x, y := cx+dx, cy+dy
				if g.interior(x, y) && g.walkable(x, y) {
					return point{x, y}
				}
			}
		}
	}
	return point{cx, cy}
}

func (g *wilderness) carveTrails(start point) []point {
	n := 2 + g.rng.IntN(2)
	ends := make([]point, 0, n)
	for range n {
		var end point
		switch g.rng.IntN(4) {
		case 0:
			end = point{inset(g.rng.IntN(g.cols()), g.cols()), 1}
		case 1:
			end = point{inset(g.rng.IntN(g.cols()), g.cols()), g.rows() - 2}
		case 2:
			end = point{g.cols() - 2, inset(g.rng.IntN(g.rows()), g.rows())}
		default:
			end = point{1, inset(g.rng.IntN(g.rows()), g.rows())}
		}
		g.carveTrail(start, end)
		ends = append(ends, end)
	}
	return ends
}

// inset keeps trail ends away from the corners.
func inset(v, limit int) int {
	return min(max(v, 4), limit-5)
}

// carveTrail walks from a toward b, drifting sideways now and then, and
// lays path (bridges over water) on every cell it crosses.
func (g *wilderness) carveTrail(a, b point) {
	p := a
	for steps := 0; steps < g.d.Dims.Cells() && p != b; steps++ {
		dx, dy := sign(b.x-p.x), sign(b.y-p.y)
		if abs(b.x-p.x) > abs(b.y-p.y) {
			dy = 0
			if g.rng.Float64() < 0.3 {
				dx, dy = 0, nonZero(sign(b.y-p.y), g.rng)
			}
		} else {
			dx = 0
			if g.rng.Float64() < 0.3 {
				dx, dy = nonZero(sign(b.x-p.x), g.rng), 0
			}
		}
		next := point{p.x + dx, p.y + dy}
		if !g.interior(next.x, next.y) {
			continue
		}
		g.pave(next)
		p = next
	}
}

func (g *wilderness) pave(p point) {
	switch g.tile(p.x, p.y) {
	case maps.TilePath, maps.TileBridge:
	case maps.TileWater:
		g.set(p.x, p.y, maps.TileBridge)
	default:
		g.set(p.x, p.y, maps.TilePath)
	}
}

func nonZero(s int, rng *rand.Rand) int {
	if s != 0 {
		return s
	}
	return rng.IntN(2)*2 - 1
}

// regions labels every walkable cell with its 4-connected component.
// Blocked cells get -1. It returns the labels and each component's size.
func (g *wilderness) regions() ([]int, []int) {
	labels := make([]int, g.d.Dims.Cells())
	for i := range labels {
		labels[i] = -1
	}
	var sizes []int
	for y := 0; y < g.rows(); y++ {
		for x := 0; x < g.cols(); x++ {
			i := maps.Index(g.d, x, y)
			if labels[i] >= 0 || !g.walkable(x, y) {
				continue
			}
			id := len(sizes)
			size := 0
			stack := []point{{x, y}}
			labels[i] = id
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				size++
				for _, d := range dirs4 {
					n := point{p.x + d.x, p.y + d.y}
					if !g.walkable(n.x, n.y) {
						continue
					}
					if j := maps.Index(g.d, n.x, n.y); labels[j] < 0 {
						labels[j] = id
						stack = append(stack, n)
					}
				}
			}
			sizes = append(sizes, size)
		}
	}
	return labels, sizes
}

// connect makes every walkable cell reachable from start. Pockets below
// minIsland cells are planted over with trees; larger ones get a corridor
// to the nearest reachable cell.
func (g *wilderness) connect(start point) {
	const minIsland = 15

	labels, sizes := g.regions()
	home := labels[maps.Index(g.d, start.x, start.y)]
	if home < 0 || len(sizes) == 1 {
		fmt.Fprintf(g.log, "Connectivity: %d region(s), nothing to join\n", len(sizes))
		return
	}

	// Fill first so no corridor gets cut by a later fill.
	pockets, filled := 0, 0
	for id, size := range sizes {
		if id != home && size < minIsland {
			g.fill(labels, id)
			pockets++
			filled += size
		}
	}
	joined := 0
	for id, size := range sizes {
		if id == home || size < minIsland {
			continue
		}
		from, to := g.closest(labels, id, home)
		g.corridor(from, to)
		joined++
	}
	fmt.Fprintf(g.log, "Connectivity: joined %d region(s), filled %d cell(s) in %d pocket(s)\n",
		joined, filled, pockets)
}

func (g *wilderness) fill(labels []int, id int) {
	for i, l := range labels {
		if l == id {
			g.d.TileGrid[i] = maps.TileTree
		}
	}
}

// closest finds the nearest pair of cells between two components by
// Manhattan distance, sampling the edges of large components.
func (g *wilderness) closest(labels []int, a, b int) (point, point) {
	edgeA := g.sample(g.edge(labels, a), 200)
	edgeB := g.sample(g.edge(labels, b), 500)
	best := -1
	var from, to point
	for _, p := range edgeA {
		for _, q := range edgeB {
			if d := abs(p.x-q.x) + abs(p.y-q.y); best < 0 || d < best {
				best, from, to = d, p, q
			}
		}
	}
	return from, to
}

// edge returns the cells of a component that touch a blocked cell.
func (g *wilderness) edge(labels []int, id int) []point {
	var out []point
	for y := 0; y < g.rows(); y++ {
		for x := 0; x < g.cols(); x++ {
			if labels[maps.Index(g.d, x, y)] != id {
				continue
			}
			for _, d := range dirs4 {
				if n := (point{x + d.x, y + d.y}); g.d.InBounds(n.x, n.y) && !g.walkable(n.x, n.y) {
					out = append(out, point{x, y})
					break
				}
			}
		}
	}
	return out
}

func (g *wilderness) sample(pts []point, n int) []point {
	if len(pts) <= n {
		return pts
	}
	g.rng.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })
	return pts[:n]
}

func (g *wilderness) corridor(from, to point) {
	p := from
	for p != to {
		if abs(to.x-p.x) >= abs(to.y-p.y) {
			p.x += sign(to.x - p.x)
		} else {
			p.y += sign(to.y - p.y)
		}
		if g.interior(p.x, p.y) && !g.walkable(p.x, p.y) {
			g.pave(p)
		}
	}
}

// findSpawn searches outward from the middle for grass or path with at
// least seven walkable cells in its 3x3 neighbourhood.
func (g *wilderness) findSpawn() point {
	cx, cy := g.cols()/2, g.rows()/2
	for r := 0; r <= max(g.cols(), g.rows())/2; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if abs(dx) != r && abs(dy) != r {
					continue
				}
				x, y := cx+dx, cy+dy
				if x < 2 || x >= g.cols()-2 || y < 2 || y >= g.rows()-2 {
					continue
				}
				if t := g.tile(x, y); t != maps.TileGrass && t != maps.TilePath {
					continue
				}
				open := 0
				for ny := y - 1; ny <= y+1; ny++ {
					for nx := x - 1; nx <= x+1; nx++ {
						if g.walkable(nx, ny) {
							open++
						}
					}
				}
				if open >= 7 {
					return point{x, y}
				}
			}
		}
	}
	return g.nearestWalkable(cx, cy)
}

// spawnNPCs scatters n copies of tpl on walkable cells away from the
// entry point and the trail ends.
func (g *wilderness) spawnNPCs(key string, tpl maps.NPCTemplate, n int, avoid []point) int {
	avoid = append(avoid, point{g.d.Entry.X, g.d.Entry.Y})
	placed := 0
	for tries := 0; placed < n && tries < n*100; tries++ {
		p := point{1 + g.rng.IntN(g.cols()-2), 1 + g.rng.IntN(g.rows()-2)}
		i := maps.Index(g.d, p.x, p.y)
		if !g.walkable(p.x, p.y) || g.d.NPCSpawnGrid[i] != "" || near(p, avoid, 2) {
			continue
		}
		g.d.NPCSpawnGrid[i] = key
		placed++
	}
	if placed > 0 {
		g.d.NPCTemplates[key] = tpl
	}
	return placed
}

func near(p point, pts []point, dist int) bool {
	for _, q := range pts {
		if abs(p.x-q.x)+abs(p.y-q.y) <= dist {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
