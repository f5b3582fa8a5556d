package sixop_test

import (
	"testing"

	"github.com/sixop/sixop"
)

func TestMatrixIndexIsBijective(t *testing.T) {
	seen := make(map[int]bool)
	for target := 0; target < sixop.NumOps; target++ {
		for source := 0; source < target; source++ {
			i, ok := sixop.MatrixIndex(source, target)
			if !ok {
				t.Fatalf("(%d, %d) not in the matrix", source, target)
			}
			if i < 0 || i >= sixop.MatrixSize || seen[i] {
				t.Fatalf("(%d, %d) mapped to invalid or repeated index %d", source, target, i)
			}
			seen[i] = true
			if s, tt := sixop.MatrixSourceAt(i), sixop.MatrixTargetAt(i); s != source || tt != target {
				t.Fatalf("index %d maps back to (%d, %d), expected (%d, %d)", i, s, tt, source, target)
			}
		}
	}
	if len(seen) != sixop.MatrixSize {
		t.Fatalf("expected %d edges, got %d", sixop.MatrixSize, len(seen))
	}
}

func TestMatrixIndexRejectsInvalidPairs(t *testing.T) {
	for _, pair := range [][2]int{{0, 0}, {3, 2}, {-1, 2}, {2, sixop.NumOps}, {5, 5}} {
		if _, ok := sixop.MatrixIndex(pair[0], pair[1]); ok {
			t.Errorf("pair %v should not be in the matrix", pair)
		}
	}
}

func TestMatrixEdgesIntoTarget(t *testing.T) {
	for target := 0; target < sixop.NumOps; target++ {
		start, end := sixop.MatrixEdgesInto(target)
		if end-start != target {
			t.Fatalf("target %d should have %d incoming edges, got %d", target, target, end-start)
		}
		for i := start; i < end; i++ {
			if sixop.MatrixTargetAt(i) != target || sixop.MatrixSourceAt(i) != i-start {
				t.Fatalf("edge %d does not belong to target %d", i, target)
			}
		}
	}
}
