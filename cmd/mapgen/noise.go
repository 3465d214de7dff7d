package main

import (
	"math"
	"math/rand/v2"
)

// Simplex is a seeded 2D simplex noise field.
type Simplex struct {
	perm [512]uint8
}

func NewSimplex(seed uint64) *Simplex {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var p [256]uint8
	for i := range p {
		p[i] = uint8(i)
	}
	rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })

	s := &Simplex{}
	for i := range s.perm {
		s.perm[i] = p[i&255]
	}
	return s
}

// Skew and unskew factors for two dimensions.
var (
	skew2   = (math.Sqrt(3) - 1) / 2
	unskew2 = (3 - math.Sqrt(3)) / 6
)

func gradDot(hash uint8, x, y float64) float64 {
	h := hash & 7
	if h >= 4 {
		x, y = y, x
	}
	if h&1 != 0 {
		x = -x
	}
	if h&2 != 0 {
		y = -y
	}
	return x + y
}

// At returns the noise value at (x, y) in [-1, 1].
func (s *Simplex) At(x, y float64) float64 {
	k := (x + y) * skew2
	i, j := math.Floor(x+k), math.Floor(y+k)
	u := (i + j) * unskew2
	x0, y0 := x-(i-u), y-(j-u)

	// Lower or upper triangle of the cell.
	di, dj := 0, 1
	if x0 > y0 {
		di, dj = 1, 0
	}

	corners := [3][2]float64{
		{x0, y0},
		{x0 - float64(di) + unskew2, y0 - float64(dj) + unskew2},
		{x0 - 1 + 2*unskew2, y0 - 1 + 2*unskew2},
	}
	ii, jj := int(i)&255, int(j)&255
	hashes := [3]uint8{
		s.perm[ii+int(s.perm[jj])],
		s.perm[ii+di+int(s.perm[jj+dj])],
		s.perm[ii+1+int(s.perm[jj+1])],
	}

	var sum float64
	for c, p := range corners {
		t := 0.5 - p[0]*p[0] - p[1]*p[1]
		if t <= 0 {
			continue
		}
		t *= t
		sum += t * t * gradDot(hashes[c], p[0], p[1])
	}
	return 70 * sum
}

// Octaves sums several octaves of noise, each at double the frequency and
// half the amplitude of the previous, normalized to [0, 1].
func (s *Simplex) Octaves(x, y, freq float64, octaves int) float64 {
	var total, norm float64
	amp := 1.0
	for range octaves {
		total += s.At(x*freq, y*freq) * amp
		norm += amp
		freq *= 2
		amp /= 2
	}
	return (total/norm + 1) / 2
}
