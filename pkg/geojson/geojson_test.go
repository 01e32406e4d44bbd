package geojson

import (
	"reflect"
	"testing"
)

func TestBBoxPolygon(t *testing.T) {
	g, err := BBoxPolygon(-180, -90, 180, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Type != "Polygon" {
		t.Errorf("type = %q, expected Polygon", g.Type)
	}

	rings, err := g.Polygon()
	if err != nil {
		t.Fatalf("Polygon() failed: %v", err)
	}
	if len(rings) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(rings))
	}
	ring := rings[0]
	if len(ring) != 5 {
		t.Fatalf("expected closed 5-position ring, got %d", len(ring))
	}
	if !reflect.DeepEqual(ring[0], ring[len(ring)-1]) {
		t.Error("ring is not closed")
	}
}

func TestNewPolygonValidation(t *testing.T) {
	if _, err := NewPolygon(nil); err == nil {
		t.Error("expected error for no rings")
	}
	if _, err := NewPolygon([][][]float64{{{0, 0}, {1, 0}, {0, 0}}}); err == nil {
		t.Error("expected error for a ring with fewer than 4 positions")
	}
}

func TestComputeBBox(t *testing.T) {
	g, err := BBoxPolygon(-10, -5, 20, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bbox, err := ComputeBBox(g)
	if err != nil {
		t.Fatalf("ComputeBBox failed: %v", err)
	}
	want := []float64{-10, -5, 20, 15}
	if !reflect.DeepEqual(bbox, want) {
		t.Errorf("bbox = %v, expected %v", bbox, want)
	}
}

func TestComputeBBoxNonPolygon(t *testing.T) {
	g := &Geometry{Type: "Point", Coordinates: []byte("[0, 0]")}
	if _, err := ComputeBBox(g); err == nil {
		t.Error("expected error for non-Polygon geometry")
	}
	if _, err := ComputeBBox(nil); err == nil {
		t.Error("expected error for nil geometry")
	}
}
