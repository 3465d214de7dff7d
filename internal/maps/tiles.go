package maps

// colorNames maps color names used in map files to ANSI codes.
var colorNames = map[string]int{
	"black":          30,
	"red":            31,
	"green":          32,
	"yellow":         33,
	"blue":           34,
	"magenta":        35,
	"cyan":           36,
	"white":          37,
	"gray":           90,
	"grey":           90,
	"bright_red":     91,
	"bright_green":   92,
	"bright_yellow":  93,
	"bright_blue":    94,
	"bright_magenta": 95,
	"bright_cyan":    96,
	"bright_white":   97,
}

// ResolveColor returns the ANSI code for a color name, white when unknown.
func ResolveColor(name string) int {
	if code, ok := colorNames[name]; ok {
		return code
	}
	return 37
}

// TileDef defines the visual and gameplay properties of a tile type.
type TileDef struct {
	Code     int
	Char     rune
	Fg       int
	Walkable bool
	Name     string
}

// Tile codes of the static tile-type table.
const (
	TileGrass = iota
	TileWall
	TileTree
	TileWater
	TileCaveEntrance
	TileCaveFloor
	TileSand
	TilePath
	TileBridge
	TileFlowers
)

var tileTable = map[int]TileDef{
	TileGrass:        {Code: TileGrass, Char: '.', Fg: ResolveColor("green"), Walkable: true, Name: "grass"},
	TileWall:         {Code: TileWall, Char: '#', Fg: ResolveColor("gray"), Walkable: false, Name: "wall"},
	TileTree:         {Code: TileTree, Char: 'T', Fg: ResolveColor("green"), Walkable: false, Name: "tree"},
	TileWater:        {Code: TileWater, Char: '~', Fg: ResolveColor("blue"), Walkable: false, Name: "water"},
	TileCaveEntrance: {Code: TileCaveEntrance, Char: 'O', Fg: ResolveColor("yellow"), Walkable: true, Name: "cave_entrance"},
	TileCaveFloor:    {Code: TileCaveFloor, Char: '.', Fg: ResolveColor("gray"), Walkable: true, Name: "cave_floor"},
	TileSand:         {Code: TileSand, Char: ',', Fg: ResolveColor("yellow"), Walkable: true, Name: "sand"},
	TilePath:         {Code: TilePath, Char: ':', Fg: ResolveColor("bright_yellow"), Walkable: true, Name: "path"},
	TileBridge:       {Code: TileBridge, Char: '=', Fg: ResolveColor("yellow"), Walkable: true, Name: "bridge"},
	TileFlowers:      {Code: TileFlowers, Char: '*', Fg: ResolveColor("bright_red"), Walkable: true, Name: "flowers"},
}

// LookupTile returns the tile definition for a terrain code.
func LookupTile(code int) (TileDef, bool) {
	td, ok := tileTable[code]
	return td, ok
}

// Tile returns the tile definition for a terrain code, or an unwalkable
// "unknown" tile for codes outside the table.
func Tile(code int) TileDef {
	if td, ok := tileTable[code]; ok {
		return td
	}
	return TileDef{Code: code, Char: '?', Fg: 37, Walkable: false, Name: "unknown"}
}
