package parking

import (
	"encoding/json"
	"fmt"
	"math"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) DistanceTo(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned box in camera pixel space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) corners() []Point {
	return []Point{
		{r.X, r.Y},
		{r.X + r.Width, r.Y},
		{r.X + r.Width, r.Y + r.Height},
		{r.X, r.Y + r.Height},
	}
}

// Region is a spot boundary: a convex polygon in camera pixel space.
// Rectangles are stored as their four corners.
type Region struct {
	Points []Point `json:"points"`
}

func RectRegion(r Rect) Region {
	return Region{Points: r.corners()}
}

func PolygonRegion(points []Point) Region {
	return Region{Points: points}
}

// Area computes the polygon area with the shoelace formula.
func (g Region) Area() float64 {
	n := len(g.Points)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += g.Points[i].X*g.Points[j].Y - g.Points[j].X*g.Points[i].Y
	}
	return math.Abs(sum) / 2
}

func (g Region) Validate() error {
	if len(g.Points) < 3 {
		return fmt.Errorf("region needs at least 3 points, got %d", len(g.Points))
	}
	if g.Area() <= 0 {
		return fmt.Errorf("region is degenerate (zero area)")
	}
	return nil
}

// OverlapRatio returns intersection(box, region) / area(box): the share of
// the detection box lying inside the spot boundary. Zero for degenerate
// boxes.
func (g Region) OverlapRatio(box Rect) float64 {
	boxArea := box.Area()
	if boxArea <= 0 {
		return 0
	}
	clipped := clipPolygon(box.corners(), g.Points)
	return polygonArea(clipped) / boxArea
}

// clipPolygon clips subject against a convex clip polygon
// (Sutherland-Hodgman). Clip winding may be either orientation.
func clipPolygon(subject, clip []Point) []Point {
	if len(clip) < 3 {
		return nil
	}
	sign := 1.0
	if signedArea(clip) < 0 {
		sign = -1.0
	}
	output := subject
	for i := 0; i < len(clip); i++ {
		if len(output) == 0 {
			return nil
		}
		a := clip[i]
		b := clip[(i+1)%len(clip)]
		input := output
		output = nil
		for j := 0; j < len(input); j++ {
			cur := input[j]
			prev := input[(j+len(input)-1)%len(input)]
			curIn := sign*cross(a, b, cur) >= 0
			prevIn := sign*cross(a, b, prev) >= 0
			if curIn {
				if !prevIn {
					output = append(output, intersect(prev, cur, a, b))
				}
				output = append(output, cur)
			} else if prevIn {
				output = append(output, intersect(prev, cur, a, b))
			}
		}
	}
	return output
}

func cross(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func signedArea(poly []Point) float64 {
	sum := 0.0
	for i := 0; i < len(poly); i++ {
		j := (i + 1) % len(poly)
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return sum / 2
}

func polygonArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	return math.Abs(signedArea(poly))
}

func intersect(p1, p2, a, b Point) Point {
	d1 := cross(a, b, p1)
	d2 := cross(a, b, p2)
	if d1 == d2 {
		return p1
	}
	t := d1 / (d1 - d2)
	return Point{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
	}
}

// regionJSON accepts either a rectangle or an explicit polygon in spot
// configuration files.
type regionJSON struct {
	Rect    *Rect        `json:"rect,omitempty"`
	Polygon [][2]float64 `json:"polygon,omitempty"`
}

func (g *Region) UnmarshalJSON(data []byte) error {
	var raw regionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Rect != nil:
		*g = RectRegion(*raw.Rect)
	case len(raw.Polygon) > 0:
		points := make([]Point, 0, len(raw.Polygon))
		for _, p := range raw.Polygon {
			points = append(points, Point{X: p[0], Y: p[1]})
		}
		*g = PolygonRegion(points)
	default:
		return fmt.Errorf("region must define either rect or polygon")
	}
	return nil
}

func (g Region) MarshalJSON() ([]byte, error) {
	poly := make([][2]float64, 0, len(g.Points))
	for _, p := range g.Points {
		poly = append(poly, [2]float64{p.X, p.Y})
	}
	return json.Marshal(regionJSON{Polygon: poly})
}
