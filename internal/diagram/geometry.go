package diagram

import (
	"math"
	"slices"

	"github.com/mrajende/vdmlio/internal/model"
)

// StraightWaypoints connects the centers of source and target.
func StraightWaypoints(source, target *Element) []model.Point {
	if source == nil || target == nil {
		return nil
	}
	return []model.Point{source.Mid(), target.Mid()}
}

// CropWaypoints trims the first and last segment of conn so they end on the
// border of its source and target shapes. Points already outside a shape
// are kept.
func CropWaypoints(conn *Element) []model.Point {
	pts := slices.Clone(conn.Waypoints)
	if len(pts) < 2 || conn.Source == nil || conn.Target == nil {
		return pts
	}
	sb, tb := conn.Source.Bounds(), conn.Target.Bounds()
	if p, ok := borderPoint(pts[0], pts[1], sb); ok {
		pts[0] = p
	}
	n := len(pts)
	if p, ok := borderPoint(pts[n-1], pts[n-2], tb); ok {
		pts[n-1] = p
	}
	return pts
}

// borderPoint returns where the segment from inside (within b) towards
// outside leaves b.
func borderPoint(inside, outside model.Point, b model.Bounds) (model.Point, bool) {
	if !contains(b, inside) || contains(b, outside) {
		return inside, false
	}
	dx, dy := outside.X-inside.X, outside.Y-inside.Y
	t := math.Inf(1)
	if dx > 0 {
		t = math.Min(t, (b.X+b.Width-inside.X)/dx)
	} else if dx < 0 {
		t = math.Min(t, (b.X-inside.X)/dx)
	}
	if dy > 0 {
		t = math.Min(t, (b.Y+b.Height-inside.Y)/dy)
	} else if dy < 0 {
		t = math.Min(t, (b.Y-inside.Y)/dy)
	}
	if math.IsInf(t, 1) {
		return inside, false
	}
	return model.Point{X: round(inside.X + t*dx), Y: round(inside.Y + t*dy)}, true
}

func contains(b model.Bounds, p model.Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width && p.Y >= b.Y && p.Y <= b.Y+b.Height
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

// Translate returns pts shifted by delta.
func Translate(pts []model.Point, delta model.Point) []model.Point {
	out := make([]model.Point, len(pts))
	for i, p := range pts {
		out[i] = model.Point{X: p.X + delta.X, Y: p.Y + delta.Y}
	}
	return out
}

// WaypointsMid returns the middle of a waypoint list, used to place labels
// of connections.
func WaypointsMid(pts []model.Point) model.Point {
	switch len(pts) {
	case 0:
		return model.Point{}
	case 1:
		return pts[0]
	}
	i := len(pts) / 2
	a, b := pts[i-1], pts[i]
	return model.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
