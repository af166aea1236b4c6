package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrajende/vdmlio/internal/model"
)

func TestCropWaypoints(t *testing.T) {
	source := &Element{ID: "a", X: 0, Y: 0, Width: 100, Height: 80}
	target := &Element{ID: "b", X: 300, Y: 0, Width: 100, Height: 80}
	conn := &Element{ID: "c", Type: TypeConnection, Source: source, Target: target}
	conn.Waypoints = StraightWaypoints(source, target)

	got := CropWaypoints(conn)
	assert.Equal(t, []model.Point{{X: 100, Y: 40}, {X: 300, Y: 40}}, got)
	assert.Equal(t, model.Point{X: 50, Y: 40}, conn.Waypoints[0], "input is not modified")

	conn.Waypoints = got
	assert.Equal(t, got, CropWaypoints(conn), "cropping twice changes nothing")
}

func TestCropWaypoints_Diagonal(t *testing.T) {
	source := &Element{X: 0, Y: 0, Width: 100, Height: 100}
	target := &Element{X: 200, Y: 200, Width: 100, Height: 100}
	conn := &Element{Type: TypeConnection, Source: source, Target: target}
	conn.Waypoints = StraightWaypoints(source, target)

	got := CropWaypoints(conn)
	assert.Equal(t, []model.Point{{X: 100, Y: 100}, {X: 200, Y: 200}}, got)
}

func TestCropWaypoints_Overlapping(t *testing.T) {
	source := &Element{X: 0, Y: 0, Width: 100, Height: 100}
	target := &Element{X: 50, Y: 50, Width: 100, Height: 100}
	conn := &Element{Type: TypeConnection, Source: source, Target: target}
	conn.Waypoints = StraightWaypoints(source, target)

	assert.Equal(t, conn.Waypoints, CropWaypoints(conn))
}

func TestTranslateAndMid(t *testing.T) {
	pts := []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 20}}
	assert.Equal(t, []model.Point{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 25}}, Translate(pts, model.Point{X: 5, Y: 5}))
	assert.Equal(t, model.Point{X: 10, Y: 10}, WaypointsMid(pts))
	assert.Equal(t, model.Point{}, WaypointsMid(nil))
}
