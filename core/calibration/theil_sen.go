package calibration

import (
	"slices"
)

type point struct {
	x float64
	y float64
}

func median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		panic("invalid argument: median of empty data set is undefined")
	}
	slices.Sort(data)
	if n%2 == 0 {
		return (data[n/2-1] + data[n/2]) / 2
	}
	return data[n/2]
}

// spread reports whether at least two points differ in x.
func spread(pts []point) bool {
	for _, p := range pts[1:] {
		if p.x != pts[0].x {
			return true
		}
	}
	return false
}

// slope returns the Theil-Sen estimate, the median of the slopes of all
// point pairs.
func slope(pts []point) float64 {
	if len(pts) == 1 {
		return pts[0].y / pts[0].x
	}
	var slopes []float64
	for i, a := range pts {
		for _, b := range pts[i+1:] {
			// Sen (1968): pairs sharing an x coordinate are skipped
			if a.x != b.x {
				slopes = append(slopes, (a.y-b.y)/(a.x-b.x))
			}
		}
	}
	if len(slopes) == 0 {
		panic("invalid argument: all points share the same x coordinate")
	}
	return median(slopes)
}

func intercept(slope float64, pts []point) float64 {
	residuals := make([]float64, len(pts))
	for i, p := range pts {
		residuals[i] = p.y - slope*p.x
	}
	return median(residuals)
}
