package flower

// Class is a flower category the classifier was trained on.
type Class string

const (
	Lilly     Class = "Lilly"
	Lotus     Class = "Lotus"
	Orchid    Class = "Orchid"
	Sunflower Class = "Sunflower"
	Tulip     Class = "Tulip"
)

// Lang selects a display table.
type Lang string

const (
	Russian Lang = "ru"
	English Lang = "en"
)

// DefaultLang is used when no language, or an unknown one, is requested.
const DefaultLang = Russian

// classes is in the order of the model's output vector.
var classes = []Class{Lilly, Lotus, Orchid, Sunflower, Tulip}

var displayNames = map[Lang]map[Class]string{
	Russian: {
		Lilly:     "🌼 Лилия",
		Lotus:     "🌼 Лотус",
		Orchid:    "🌹 Орхидея",
		Sunflower: "🌻 Подсолнух",
		Tulip:     "🌷 Тюльпан",
	},
	English: {
		Lilly:     "🌼 Lily",
		Lotus:     "🌼 Lotus",
		Orchid:    "🌹 Orchid",
		Sunflower: "🌻 Sunflower",
		Tulip:     "🌷 Tulip",
	},
}

// Classes returns the known classes in model output order.
func Classes() []Class {
	out := make([]Class, len(classes))
	copy(out, classes)
	return out
}

// Labels returns the known classes as plain strings in model output order.
func Labels() []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = string(c)
	}
	return out
}

// Parse maps a raw label to a known Class.
func Parse(label string) (Class, bool) {
	for _, c := range classes {
		if string(c) == label {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is one of the known classes.
func (c Class) Valid() bool {
	_, ok := Parse(string(c))
	return ok
}

// Display returns the decorated label for c in the given language.
func (c Class) Display(lang Lang) string {
	return Display(string(c), lang)
}

// Display maps any label to a human readable string. Labels the model may
// introduce after retraining are returned unchanged.
func Display(label string, lang Lang) string {
	table, ok := displayNames[lang]
	if !ok {
		table = displayNames[DefaultLang]
	}
	if name, ok := table[Class(label)]; ok {
		return name
	}
	return label
}

// ParseLang returns the matching Lang, falling back to DefaultLang.
func ParseLang(s string) Lang {
	if _, ok := displayNames[Lang(s)]; ok {
		return Lang(s)
	}
	return DefaultLang
}
