package sixop

import "math"

// NumOps is the number of operators of every voice. The topology is fixed:
// changing it renumbers the matrix and thus breaks saved patches.
const NumOps = 6

// MatrixSize is the number of modulation edges: one for every ordered pair
// (source, target) of operators with source < target.
const MatrixSize = NumOps * (NumOps - 1) / 2

// The modulation matrix edges are enumerated target-major: all edges into
// operator 1, then all edges into operator 2 and so on. Within a target, the
// sources are ascending. Thus edge 0 is 0->1, edges 1 and 2 are 0->2 and 1->2,
// and the edges feeding target t occupy [t(t-1)/2, t(t+1)/2).

// MatrixIndex returns the edge index of the edge source -> target. ok is false
// if the pair is not part of the matrix, i.e. unless 0 <= source < target <
// NumOps.
func MatrixIndex(source, target int) (index int, ok bool) {
	if source < 0 || target >= NumOps || source >= target {
		return 0, false
	}
	return target*(target-1)/2 + source, true
}

// MatrixTargetAt returns the target operator of edge i.
func MatrixTargetAt(i int) int {
	// largest t with t(t-1)/2 <= i
	t := int((1 + math.Sqrt(float64(1+8*i))) / 2)
	// guard against rounding in the square root
	for t*(t-1)/2 > i {
		t--
	}
	for (t+1)*t/2 <= i {
		t++
	}
	return t
}

// MatrixSourceAt returns the source operator of edge i.
func MatrixSourceAt(i int) int {
	t := MatrixTargetAt(i)
	return i - t*(t-1)/2
}

// MatrixEdgesInto returns the half-open range of edge indices whose target is
// operator t. The sources of these edges are 0, 1, ..., t-1 in order.
func MatrixEdgesInto(t int) (start, end int) {
	return t * (t - 1) / 2, t * (t + 1) / 2
}
