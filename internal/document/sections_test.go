package document

import "testing"

func TestFindSections_BasicMarkers(t *testing.T) {
	text := "Section 25 - Électricité\nVoir aussi la section 03 pour le béton."
	got := FindSections(text)

	want := []string{"03", "25"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sections[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestFindSections_DottedFormsCanonicalize(t *testing.T) {
	// "07.20", "07 20" and "0720" are the same marker.
	got := FindSections("SECTION 07.20 Isolation\nsection 07 20 rappel\nSection 0720")
	if len(got) != 1 {
		t.Fatalf("expected 1 canonical section, got %v", got)
	}
	if got[0] != "0720" {
		t.Errorf("expected %q, got %q", "0720", got[0])
	}
}

func TestFindSections_NoMarkers(t *testing.T) {
	if got := FindSections("Aucun marqueur ici."); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestCanonicalSection(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"25", "25"},
		{"Section 25", "25"},
		{"SECTION 07.20", "0720"},
		{"07 20", "0720"},
		{"plomberie", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := CanonicalSection(c.in); got != c.want {
			t.Errorf("CanonicalSection(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestHasSection_AcceptsFilterForms(t *testing.T) {
	page := Page{Number: 3, Text: "...", Sections: []string{"25"}}

	for _, filter := range []string{"25", "Section 25", "SECTION 25", "section25"} {
		if !page.HasSection(filter) {
			t.Errorf("expected page to match filter %q", filter)
		}
	}
	if page.HasSection("26") {
		t.Error("expected page not to match filter 26")
	}
}

func TestHasSection_NonNumericFilterNeverMatches(t *testing.T) {
	page := Page{Number: 1, Sections: []string{"25"}}
	if page.HasSection("plomberie") {
		t.Error("non-numeric filter must not match")
	}
}
