package material

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"Face", Face},
		{"FACE_skin", Face},
		{"顔", Face},
		{"肌", Face},
		{"eye_white", Face},
		{"Hair", Hair},
		{"前髪", Hair},
		{"後ろ髪", Hair},
		{"Ponytail", Hair},
		{"Body", Body},
		{"cloth", Body},
		{"スカート", Body},
		{"", Body},
		// Exclusion keywords win over face keywords.
		{"face_body", Body},
		{"Body_Skin", Body},
		{"体肌", Body},
		{"torso_face_tex", Body},
	}

	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	names := []string{"Face", "hair_back", "body", "accessory", "顔"}
	for _, n := range names {
		first := Classify(n)
		second := Classify(n)
		if first != second {
			t.Errorf("Classify(%q) changed from %s to %s", n, first, second)
		}
	}
}

func TestRegistryKeepsFirstClassification(t *testing.T) {
	r := NewRegistry()
	key := Key{Surface: 0, Material: 3}

	first := r.Classify(key, "face")
	if first.Category != Face || first.SourceName != "face" {
		t.Fatalf("first classification = %+v", first)
	}

	// Re-classifying an already classified key is a no-op.
	second := r.Classify(key, "hair")
	if second != first {
		t.Errorf("second classification = %+v, want %+v", second, first)
	}

	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistryCount(t *testing.T) {
	r := NewRegistry()
	r.Classify(Key{0, 0}, "face")
	r.Classify(Key{0, 1}, "hair")
	r.Classify(Key{0, 2}, "hair_back")
	r.Classify(Key{1, 0}, "skirt")

	counts := r.Count()
	if counts[Face] != 1 || counts[Hair] != 2 || counts[Body] != 1 {
		t.Errorf("counts = %v", counts)
	}

	if _, ok := r.Get(Key{5, 5}); ok {
		t.Error("expected missing key")
	}
}

func TestCategoryString(t *testing.T) {
	for _, c := range Categories {
		if c.String() == "unknown" {
			t.Errorf("category %d has no name", c)
		}
	}
}
