package domain

import "testing"

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already full width", "560001", "560001"},
		{"short numeric is zero padded", "1234", "001234"},
		{"whitespace trimmed", "  560001 ", "560001"},
		{"short with whitespace", " 99 ", "000099"},
		{"non-digit returned trimmed", " SW1A1A ", "SW1A1A"},
		{"mixed alphanumeric untouched", "56000A", "56000A"},
		{"longer than width untouched", "5600011", "5600011"},
		{"empty padded", "", "000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePostalCode(tt.input); got != tt.want {
				t.Errorf("NormalizePostalCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPostalRegionMappingContains(t *testing.T) {
	mapping := &PostalRegionMapping{
		StartPostalCode: "560001",
		EndPostalCode:   "560100",
		RegionName:      "Bangalore Urban",
	}

	tests := []struct {
		name string
		code string
		want bool
	}{
		{"start boundary inclusive", "560001", true},
		{"end boundary inclusive", "560100", true},
		{"inside range", "560050", true},
		{"below range", "560000", false},
		{"above range", "560101", false},
		{"different city", "400001", false},
		{"non-digit never matches", "ABCDEF", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapping.Contains(tt.code); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestContainsNormalizesRangeBounds(t *testing.T) {
	// Range bounds stored without padding still match padded codes.
	mapping := &PostalRegionMapping{
		StartPostalCode: "1000",
		EndPostalCode:   "2000",
	}

	if !mapping.Contains("1500") {
		t.Error("expected 1500 to fall inside 1000-2000")
	}
	if !mapping.Contains("001500") {
		t.Error("expected padded 001500 to fall inside 1000-2000")
	}
	if mapping.Contains("2001") {
		t.Error("expected 2001 to fall outside 1000-2000")
	}
}
