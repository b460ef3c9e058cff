package gamemap

import "container/heap"

// Path is the result of a shortest-path query.
//
// Steps[0] is the start tile and the last step is the goal when Success is true.
type Path struct {
	Steps   []Point
	Success bool
}

type pathNode struct {
	idx      int
	priority float64
	index    int
}

type pathQueue []*pathNode

func (q pathQueue) Len() int           { return len(q) }
func (q pathQueue) Less(i, j int) bool { return q[i].priority < q[j].priority }
func (q pathQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *pathQueue) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

var cardinal = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
var diagonal = [4][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}

// exits lists the enterable neighbours of idx with their step cost.
// The goal tile is always enterable so a path can end on an occupied tile.
func (m *Map) exits(idx, goal int, fn func(next int, cost float64)) {
	p := m.PointAt(idx)
	try := func(d [2]int, cost float64) {
		x, y := p.X+d[0], p.Y+d[1]
		if !m.InBounds(x, y) {
			return
		}
		n := m.Index(x, y)
		if n != goal && m.Blocked[n] {
			return
		}
		fn(n, cost)
	}
	for _, d := range cardinal {
		try(d, 1.0)
	}
	if m.AllowDiagonal {
		for _, d := range diagonal {
			try(d, DiagonalCost)
		}
	}
}

func (m *Map) heuristic(a, b int) float64 {
	return Distance(m.PointAt(a), m.PointAt(b))
}

// ShortestPath runs A* from start to goal over unblocked tiles.
//
// Precondition: Blocked reflects the current turn.
// Postcondition: on success Steps runs start..goal inclusive; on failure
// Success is false and Steps holds only start. Pathing failure is not an error.
func (m *Map) ShortestPath(start, goal Point) Path {
	if !m.InBounds(start.X, start.Y) || !m.InBounds(goal.X, goal.Y) {
		return Path{Steps: []Point{start}}
	}
	from, to := m.Index(start.X, start.Y), m.Index(goal.X, goal.Y)
	if from == to {
		return Path{Steps: []Point{start}, Success: true}
	}

	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{idx: from, priority: 0})
	cameFrom := map[int]int{from: from}
	cost := map[int]float64{from: 0}

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if current.idx == to {
			return Path{Steps: m.reconstruct(cameFrom, from, to), Success: true}
		}
		m.exits(current.idx, to, func(next int, step float64) {
			newCost := cost[current.idx] + step
			if old, seen := cost[next]; seen && newCost >= old {
				return
			}
			cost[next] = newCost
			cameFrom[next] = current.idx
			heap.Push(open, &pathNode{idx: next, priority: newCost + m.heuristic(next, to)})
		})
	}
	return Path{Steps: []Point{start}}
}

func (m *Map) reconstruct(cameFrom map[int]int, from, to int) []Point {
	var rev []int
	for at := to; at != from; at = cameFrom[at] {
		rev = append(rev, at)
	}
	rev = append(rev, from)
	steps := make([]Point, len(rev))
	for i, idx := range rev {
		steps[len(rev)-1-i] = m.PointAt(idx)
	}
	return steps
}
