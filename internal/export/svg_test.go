package export

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/san-kum/boxsim/internal/scene"
	"github.com/san-kum/boxsim/internal/vec"
)

// elements parses svg and counts its elements by name.
func elements(t *testing.T, svg string) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return counts
		}
		if err != nil {
			t.Fatalf("malformed svg: %v", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			counts[se.Name.Local]++
		}
	}
}

func TestWorldToSVG(t *testing.T) {
	s, err := scene.NewRegistry().Build("pendulum", scene.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	counts := elements(t, WorldToSVG(s.World, 400, 300, DefaultStyle()))
	if counts["svg"] != 1 {
		t.Errorf("expected one svg root, got %d", counts["svg"])
	}
	if counts["polygon"] != 1 {
		t.Errorf("expected the bob polygon, got %d", counts["polygon"])
	}
	if counts["polyline"] != 1 {
		t.Errorf("expected 1 joint line, got %d", counts["polyline"])
	}
}

func TestWorldToSVGCircles(t *testing.T) {
	s, err := scene.NewRegistry().Build("drop", scene.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	counts := elements(t, WorldToSVG(s.World, 200, 200, DefaultStyle()))
	if counts["circle"] != 1 || counts["line"] != 1 {
		t.Errorf("expected a circle with its radius line, got %v", counts)
	}
}

func TestPulleyDrawsRope(t *testing.T) {
	s, err := scene.NewRegistry().Build("pulley", scene.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	svg := WorldToSVG(s.World, 400, 300, DefaultStyle())
	for _, line := range strings.Split(svg, "\n") {
		if strings.HasPrefix(line, "<polyline") {
			if n := len(strings.Fields(strings.TrimPrefix(line, `<polyline points="`))); n != 4 {
				t.Errorf("expected 4 rope points, got %d in %s", n, line)
			}
			return
		}
	}
	t.Error("no rope drawn")
}

func TestTrajectoryToSVG(t *testing.T) {
	if svg := TrajectoryToSVG([]vec.Vec2{vec.V(0, 0)}, 100, 100, "#fff"); svg != "" {
		t.Error("expected empty output for a single point")
	}

	pts := []vec.Vec2{vec.V(0, 0), vec.V(1, 1), vec.V(2, 0)}
	svg := TrajectoryToSVG(pts, 100, 100, "#fff")
	if counts := elements(t, svg); counts["path"] != 1 {
		t.Errorf("expected one path, got %v", counts)
	}
	if got := strings.Count(svg, " L"); got != 2 {
		t.Errorf("expected 2 line segments, got %d", got)
	}
}
