package sixop

import "testing"

func TestDuplicateIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("duplicate ids did not panic")
		}
	}()
	metas := []ParamMeta{
		floatMeta(10, "A", "X", 0, 1, 0),
		floatMeta(11, "A", "Y", 0, 1, 0),
		floatMeta(10, "B", "X", 0, 1, 0),
	}
	newPatch(metas)
}

func TestParamIDsAreUnique(t *testing.T) {
	seen := make(map[uint32]string)
	for _, m := range paramMetas {
		if prev, ok := seen[m.ID]; ok {
			t.Fatalf("%q and %q share id %d", prev, m.Name, m.ID)
		}
		seen[m.ID] = m.Name
	}
}
