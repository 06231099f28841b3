package application

import "testing"

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"  Chez Louis  ", "Chez Louis"},
		{`<script>alert("x")</script>`, "scriptalert(x)/script"},
		{"L'Atelier", "LAtelier"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := SanitizeText(tc.in); got != tc.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidCommandNumber(t *testing.T) {
	t.Parallel()

	valid := []string{"1", "42", "A12", "ZZZZ", "0007"}
	for _, number := range valid {
		if !validCommandNumber(number) {
			t.Errorf("expected %q to be valid", number)
		}
	}
	invalid := []string{"", "12345", "A-1", "é9", "n°7", " 12"}
	for _, number := range invalid {
		if validCommandNumber(number) {
			t.Errorf("expected %q to be invalid", number)
		}
	}
}

func TestValidHexColor(t *testing.T) {
	t.Parallel()

	for _, color := range []string{"#3b82f6", "#ABCDEF", "#000000"} {
		if !validHexColor(color) {
			t.Errorf("expected %q to be valid", color)
		}
	}
	for _, color := range []string{"", "blue", "#fff", "#12345G", "3b82f6"} {
		if validHexColor(color) {
			t.Errorf("expected %q to be invalid", color)
		}
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	for _, email := range []string{"a@b.fr", "chef.louis@example.com"} {
		if !validEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}
	for _, email := range []string{"", "plain", "a@b", "a b@c.fr", "a@b c.fr"} {
		if validEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestPaletteColor(t *testing.T) {
	t.Parallel()

	if paletteColor(0) != counterPalette[0] {
		t.Fatalf("unexpected first palette color: %q", paletteColor(0))
	}
	if paletteColor(len(counterPalette)) != counterPalette[0] {
		t.Fatal("expected palette to wrap around")
	}
	if paletteColor(-3) != counterPalette[0] {
		t.Fatal("expected negative index to clamp to the first color")
	}
}
