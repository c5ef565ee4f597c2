package atlas

import (
	"math"
	"sort"
)

// Method selects the clustering algorithm.
type Method string

const (
	// MethodDensity is DBSCAN-style density clustering; outliers become Noise.
	MethodDensity Method = "density"
	// MethodPartition is k-means; every point joins one of k clusters.
	MethodPartition Method = "partition"
	// MethodDensityHier sweeps the density radius and keeps the most stable
	// labeling it finds.
	MethodDensityHier Method = "density-hier"
)

// Params carries the per-method tuning knobs.
type Params struct {
	// Eps is the density neighborhood radius in logical [-1,1] units.
	Eps float64 `json:"eps"`
	// MinPoints is the minimum neighborhood size for a density core point.
	MinPoints int `json:"minPoints"`
	// K is the partition count for k-means.
	K int `json:"k"`
}

// Result is a per-point label array plus the realized cluster count.
// Noise labels are excluded from Count.
type Result struct {
	Labels []Label
	Count  int
}

// Assign groups projected points into clusters. It never fails observably:
// pathological input or an algorithm panic degrades to a single cluster so
// the visualization always has something to render.
func Assign(points []Coord, method Method, p Params) (res Result) {
	if len(points) == 0 {
		return Result{Labels: []Label{}}
	}
	if len(points) == 1 {
		return Result{Labels: []Label{Member(0)}, Count: 1}
	}
	for _, pt := range points {
		if !isFinite(pt.X) || !isFinite(pt.Y) {
			return singleCluster(len(points))
		}
	}
	defer func() {
		if r := recover(); r != nil {
			res = singleCluster(len(points))
		}
	}()
	switch method {
	case MethodPartition:
		return kmeans(points, p.K)
	case MethodDensityHier:
		return densitySweep(points, p)
	default:
		return dbscan(points, p.Eps, p.MinPoints)
	}
}

func singleCluster(n int) Result {
	labels := make([]Label, n)
	for i := range labels {
		labels[i] = Member(0)
	}
	return Result{Labels: labels, Count: 1}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// gridIndex buckets points by eps-sized cell so neighborhood queries only
// touch the surrounding 3x3 cells.
type gridIndex struct {
	cell  float64
	cells map[[2]int][]int
}

func newGridIndex(points []Coord, cell float64) *gridIndex {
	g := &gridIndex{cell: cell, cells: make(map[[2]int][]int, len(points))}
	for i, p := range points {
		k := g.key(p)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *gridIndex) key(p Coord) [2]int {
	return [2]int{int(math.Floor(p.X / g.cell)), int(math.Floor(p.Y / g.cell))}
}

func (g *gridIndex) neighbors(points []Coord, i int, eps float64) []int {
	center := g.key(points[i])
	eps2 := eps * eps
	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, j := range g.cells[[2]int{center[0] + dx, center[1] + dy}] {
				ddx := points[j].X - points[i].X
				ddy := points[j].Y - points[i].Y
				if ddx*ddx+ddy*ddy <= eps2 {
					out = append(out, j)
				}
			}
		}
	}
	return out
}

func dbscan(points []Coord, eps float64, minPoints int) Result {
	if eps <= 0 {
		eps = 0.08
	}
	if minPoints < 1 {
		minPoints = 3
	}
	const (
		unvisited = -2
		noisePt   = -1
	)
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = unvisited
	}
	grid := newGridIndex(points, eps)

	next := 0
	for i := range points {
		if assign[i] != unvisited {
			continue
		}
		nbrs := grid.neighbors(points, i, eps)
		if len(nbrs) < minPoints {
			assign[i] = noisePt
			continue
		}
		id := next
		next++
		assign[i] = id
		queue := append([]int(nil), nbrs...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if assign[j] == noisePt {
				assign[j] = id // border point reached from a core
			}
			if assign[j] != unvisited {
				continue
			}
			assign[j] = id
			jn := grid.neighbors(points, j, eps)
			if len(jn) >= minPoints {
				queue = append(queue, jn...)
			}
		}
	}

	labels := make([]Label, len(points))
	for i, a := range assign {
		labels[i] = LabelFromSentinel(a)
	}
	return Result{Labels: labels, Count: next}
}

func kmeans(points []Coord, k int) Result {
	if k < 1 {
		k = 1
	}
	if k > len(points) {
		k = len(points)
	}
	centers := seedCenters(points, k)
	assign := make([]int, len(points))
	for iter := 0; iter < 50; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.MaxFloat64
			for c, ctr := range centers {
				dx, dy := p.X-ctr.X, p.Y-ctr.Y
				if d := dx*dx + dy*dy; d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		sums := make([]Coord, k)
		counts := make([]int, k)
		for i, p := range points {
			sums[assign[i]].X += p.X
			sums[assign[i]].Y += p.Y
			counts[assign[i]]++
		}
		for c := range centers {
			if counts[c] > 0 {
				centers[c] = Coord{X: sums[c].X / float64(counts[c]), Y: sums[c].Y / float64(counts[c])}
			}
		}
	}
	// Renumber so empty partitions don't leave gaps in the realized count.
	remap := make(map[int]int)
	labels := make([]Label, len(points))
	for i, a := range assign {
		id, ok := remap[a]
		if !ok {
			id = len(remap)
			remap[a] = id
		}
		labels[i] = Member(id)
	}
	return Result{Labels: labels, Count: len(remap)}
}

// seedCenters picks deterministic, well-spread initial centers: the point
// nearest the centroid first, then repeated farthest-point selection.
func seedCenters(points []Coord, k int) []Coord {
	var cx, cy float64
	for _, p := range points {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(points))
	cy /= float64(len(points))
	first, firstDist := 0, math.MaxFloat64
	for i, p := range points {
		dx, dy := p.X-cx, p.Y-cy
		if d := dx*dx + dy*dy; d < firstDist {
			first, firstDist = i, d
		}
	}
	chosen := []int{first}
	minDist := make([]float64, len(points))
	for i := range minDist {
		minDist[i] = math.MaxFloat64
	}
	for len(chosen) < k {
		last := points[chosen[len(chosen)-1]]
		next, nextDist := -1, -1.0
		for i, p := range points {
			dx, dy := p.X-last.X, p.Y-last.Y
			if d := dx*dx + dy*dy; d < minDist[i] {
				minDist[i] = d
			}
			if minDist[i] > nextDist {
				next, nextDist = i, minDist[i]
			}
		}
		chosen = append(chosen, next)
	}
	centers := make([]Coord, k)
	for i, idx := range chosen {
		centers[i] = points[idx]
	}
	return centers
}

// densitySweep runs density clustering across a small radius ladder around
// the requested eps and keeps the sweep step whose labeling clusters the
// largest fraction of points into more than one group. Ties go to the
// tighter radius.
func densitySweep(points []Coord, p Params) Result {
	base := p.Eps
	if base <= 0 {
		base = 0.08
	}
	factors := []float64{0.5, 0.75, 1, 1.5, 2}
	var best Result
	bestScore := -1.0
	for _, f := range factors {
		r := dbscan(points, base*f, p.MinPoints)
		clustered := 0
		for _, l := range r.Labels {
			if !l.IsNoise() {
				clustered++
			}
		}
		score := float64(clustered) / float64(len(points))
		if r.Count < 2 {
			score /= 2 // a single blob is the least informative outcome
		}
		if score > bestScore {
			best = r
			bestScore = score
		}
	}
	return best
}

// SortedClusterSizes is a small introspection helper for the UI status line:
// member counts per realized cluster, largest first.
func SortedClusterSizes(r Result) []int {
	counts := make([]int, r.Count)
	for _, l := range r.Labels {
		if i, ok := l.Index(); ok && i < len(counts) {
			counts[i]++
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	return counts
}
