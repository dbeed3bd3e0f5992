package textproc

import "testing"

func TestBuildSegments_OffsetsAreMonotonicAndContiguous(t *testing.T) {
	text := "Sentence number one here. Sentence number two here. Sentence number three here. " +
		"Sentence number four here. Sentence number five here. Sentence number six here."

	segs := BuildSegments(text, 50, 20, 10)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}

	normalized := Normalize(text)
	for i, s := range segs {
		if s.CharStart < 0 || s.CharEnd > len(normalized) || s.CharStart >= s.CharEnd {
			t.Fatalf("segment %d has invalid offsets [%d,%d) for text of length %d", i, s.CharStart, s.CharEnd, len(normalized))
		}
		if normalized[s.CharStart:s.CharEnd] != s.Text {
			t.Fatalf("segment %d text does not match source slice at its own offsets", i)
		}
		if i > 0 && s.CharStart < segs[i-1].CharStart {
			t.Fatalf("segment %d CharStart %d precedes previous segment's CharStart %d", i, s.CharStart, segs[i-1].CharStart)
		}
	}
}

func TestBuildSegments_SingleSegmentForShortText(t *testing.T) {
	text := "Just one short sentence here."
	segs := BuildSegments(text, 500, 100, 50)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].CharStart != 0 {
		t.Errorf("CharStart = %d, want 0", segs[0].CharStart)
	}
}

func TestBuildSegments_EmptyText(t *testing.T) {
	if segs := BuildSegments("   ", 500, 100, 50); segs != nil {
		t.Errorf("expected nil segments for blank text, got %v", segs)
	}
}
