// Package geom implements the Octagon predicate (C3): a polyhedral
// subdomain defined by 8 corner grid-points, decomposed into 6
// tetrahedra for a Contains(point) test. This stands in for the
// tetra-geometry library the original repa source links against
// (HAVE_TETRA); no 3D tetrahedralization package is available anywhere
// in the retrieved example pack (the one triangulation library present,
// pradeep-pyro/triangle, is 2D-only), so the decomposition and
// point-in-tetrahedron test are implemented directly against a fixed,
// well-known 6-tetrahedra cube split.
package geom

import "gonum.org/v1/gonum/spatial/r3"

// Octagon holds the 8 corners of a subdomain, indexed by the 3-bit
// offset (ox, oy, oz) in {0,1}^3 with index = 4*ox + 2*oy + oz.
type Octagon struct {
	Corners [8]r3.Vec
}

// CornerIndex returns the index of corner (ox, oy, oz).
func CornerIndex(ox, oy, oz int) int { return 4*ox + 2*oy + oz }

// NewOctagon builds an Octagon from its 8 corners, ordered by CornerIndex.
func NewOctagon(corners [8]r3.Vec) *Octagon {
	return &Octagon{Corners: corners}
}

// sixTets decomposes the cube's 8 corners into 6 tetrahedra, all sharing
// the main diagonal from corner 0 (0,0,0) to corner 7 (1,1,1). The
// remaining 6 corners form a hexagonal ring around that diagonal; each
// tetrahedron takes the diagonal plus one ring edge.
var sixTets = [6][2]int{
	{1, 5}, {5, 4}, {4, 6}, {6, 2}, {2, 3}, {3, 1},
}

// Contains reports whether p lies within the polyhedron described by the
// 8 corners, by testing membership in each of the 6 tetrahedra of the
// fixed decomposition.
func (o *Octagon) Contains(p r3.Vec) bool {
	a := o.Corners[0]
	d := o.Corners[7]
	for _, ring := range sixTets {
		b := o.Corners[ring[0]]
		c := o.Corners[ring[1]]
		if pointInTetrahedron(p, a, b, c, d) {
			return true
		}
	}
	return false
}

const boundaryEpsilon = 1e-9

// pointInTetrahedron uses the classic barycentric sign test: p is inside
// (a,b,c,d) iff replacing any one vertex with p never flips the sign of
// the signed tetrahedron volume (within a small tolerance to absorb
// floating-point noise at shared faces).
func pointInTetrahedron(p, a, b, c, d r3.Vec) bool {
	d0 := signedVolume(a, b, c, d)
	if d0 == 0 {
		return false
	}
	d1 := signedVolume(p, b, c, d)
	d2 := signedVolume(a, p, c, d)
	d3 := signedVolume(a, b, p, d)
	d4 := signedVolume(a, b, c, p)

	tol := boundaryEpsilon * absf(d0)
	if d0 > 0 {
		return d1 >= -tol && d2 >= -tol && d3 >= -tol && d4 >= -tol
	}
	return d1 <= tol && d2 <= tol && d3 <= tol && d4 <= tol
}

func signedVolume(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a)))
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
