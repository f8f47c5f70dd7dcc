package slug

import "testing"

func TestIsBookID(t *testing.T) {
	cases := map[string]bool{
		"1":              true,
		"main":           true,
		"cost-center_02": true,
		"":               false,
		"ALL-BOOKS":      false,
		"all-books":      false,
		"-lead":          false,
		"has space":      false,
	}
	for in, want := range cases {
		if got := IsBookID(in); got != want {
			t.Fatalf("IsBookID(%q) = %v, want %v", in, got, want)
		}
	}
	if Normalize("  1 ") != "1" {
		t.Fatalf("normalize did not trim")
	}
}
