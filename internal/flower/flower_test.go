package flower

import "testing"

func TestClassesOrder(t *testing.T) {
	want := []string{"Lilly", "Lotus", "Orchid", "Sunflower", "Tulip"}
	got := Labels()

	if len(got) != len(want) {
		t.Fatalf("Expected %d labels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Label %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestClassesReturnsCopy(t *testing.T) {
	c := Classes()
	c[0] = "Rose"

	if Classes()[0] != Lilly {
		t.Error("Classes() must not expose the internal slice")
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name  string
		label string
		lang  Lang
		want  string
	}{
		{"known ru", "Sunflower", Russian, "🌻 Подсолнух"},
		{"known en", "Tulip", English, "🌷 Tulip"},
		{"unknown lang falls back", "Orchid", Lang("de"), "🌹 Орхидея"},
		{"unknown label passes through", "Rose", Russian, "Rose"},
		{"empty label", "", English, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.label, tt.lang); got != tt.want {
				t.Errorf("Display(%q, %q) = %q, want %q", tt.label, tt.lang, got, tt.want)
			}
		})
	}
}

func TestEveryClassHasDisplayName(t *testing.T) {
	for lang, table := range displayNames {
		for _, c := range Classes() {
			if _, ok := table[c]; !ok {
				t.Errorf("Missing %s display name for %s", lang, c)
			}
		}
	}
}

func TestParse(t *testing.T) {
	if c, ok := Parse("Lotus"); !ok || c != Lotus {
		t.Errorf("Expected Lotus, got %q (%v)", c, ok)
	}
	if _, ok := Parse("lotus"); ok {
		t.Error("Parse should be case sensitive")
	}
	if Class("Rose").Valid() {
		t.Error("Rose should not be valid")
	}
}

func TestParseLang(t *testing.T) {
	if ParseLang("en") != English {
		t.Error("Expected English")
	}
	if ParseLang("fr") != DefaultLang {
		t.Error("Expected default language for unknown input")
	}
}
