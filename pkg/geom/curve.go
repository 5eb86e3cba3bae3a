package geom

import "math"

// ClosedCatmullRom samples a closed centripetal Catmull-Rom spline through
// pts and returns n points. The closing sample (which coincides with the
// first) is not included, so the result is ready to use as a polygon.
// Fewer than two control points are returned as-is.
func ClosedCatmullRom(pts []Vec3, n int) []Vec3 {
	if len(pts) < 2 || n <= 0 {
		out := make([]Vec3, len(pts))
		copy(out, pts)
		return out
	}
	out := make([]Vec3, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, catmullRomAt(pts, float64(i)/float64(n)))
	}
	return out
}

// catmullRomAt evaluates the closed spline at t in [0,1).
func catmullRomAt(pts []Vec3, t float64) Vec3 {
	l := len(pts)
	p := float64(l) * t
	seg := int(math.Floor(p))
	weight := p - float64(seg)
	if weight == 0 && seg == l {
		seg--
		weight = 1
	}
	at := func(i int) Vec3 { return pts[((i%l)+l)%l] }
	p0, p1, p2, p3 := at(seg-1), at(seg), at(seg+1), at(seg+2)

	dt0 := math.Pow(p0.Sub(p1).LenSq(), 0.25)
	dt1 := math.Pow(p1.Sub(p2).LenSq(), 0.25)
	dt2 := math.Pow(p2.Sub(p3).LenSq(), 0.25)
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	axis := func(x0, x1, x2, x3 float64) float64 {
		t1 := (x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1
		t2 := (x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2
		t1 *= dt1
		t2 *= dt1
		c0, c1 := x1, t1
		c2 := -3*x1 + 3*x2 - 2*t1 - t2
		c3 := 2*x1 - 2*x2 + t1 + t2
		w := weight
		return c0 + c1*w + c2*w*w + c3*w*w*w
	}
	return Vec3{
		axis(p0.X, p1.X, p2.X, p3.X),
		axis(p0.Y, p1.Y, p2.Y, p3.Y),
		axis(p0.Z, p1.Z, p2.Z, p3.Z),
	}
}
