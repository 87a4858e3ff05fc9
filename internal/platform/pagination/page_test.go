package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 30, Max: 100}

	cases := []struct {
		name  string
		value int
		want  int
	}{
		{"zero uses default", 0, 30},
		{"negative uses default", -5, 30},
		{"within bounds passes through", 12, 12},
		{"above max clamps", 500, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampPageSize(tc.value, cfg); got != tc.want {
				t.Fatalf("ClampPageSize(%d) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestClampPageSizeWithoutDefaults(t *testing.T) {
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("ClampPageSize(0) = %d, want fallback 1", got)
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 30); got != 0 {
		t.Fatalf("Offset(1, 30) = %d, want 0", got)
	}
	if got := Offset(3, 30); got != 60 {
		t.Fatalf("Offset(3, 30) = %d, want 60", got)
	}
	if got := Offset(0, 30); got != 0 {
		t.Fatalf("Offset(0, 30) = %d, want 0 for clamped page", got)
	}
}
