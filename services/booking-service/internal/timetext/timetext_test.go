package timetext

import "testing"

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9", "09:00"},
		{"9.30", "09:30"},
		{"14-15", "14:15"},
		{"14/05", "14:05"},
		{" 14 : 15 ", "14:15"},
		{"14:15", "14:15"},
		{"0:00", "00:00"},
		{"23:59", "23:59"},
		{"10:00:00", "10:00"},
		{"7:", "07:00"},
	}
	for _, c := range cases {
		got, err := NormalizeTime(c.in)
		if err != nil {
			t.Errorf("NormalizeTime(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "24:00", "-1:00", "12:60", "12:-5", "abc", "1x:00", "12:0x"} {
		if got, err := NormalizeTime(in); err == nil {
			t.Errorf("NormalizeTime(%q) = %q, want error", in, got)
		}
	}
}

func TestNormalizeTimeIdempotent(t *testing.T) {
	for _, in := range []string{"9", "9.30", "23:59", "0-5"} {
		once, err := NormalizeTime(in)
		if err != nil {
			t.Fatalf("NormalizeTime(%q) failed: %v", in, err)
		}
		twice, err := NormalizeTime(once)
		if err != nil {
			t.Fatalf("NormalizeTime(%q) failed on second pass: %v", once, err)
		}
		if once != twice {
			t.Errorf("NormalizeTime not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"15.03.2026", "2026-03-15"},
		{"2026-03-15", "2026-03-15"},
		{" 01.01.2027 ", "2027-01-01"},
	}
	for _, c := range cases {
		got, err := NormalizeDate(c.in)
		if err != nil {
			t.Errorf("NormalizeDate(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	for _, in := range []string{"", "32.01.2026", "2026-02-30", "soon"} {
		if got, err := NormalizeDate(in); err == nil {
			t.Errorf("NormalizeDate(%q) = %q, want error", in, got)
		}
	}
}

func TestNormalizeMonth(t *testing.T) {
	for in, want := range map[string]string{
		"2026-03":   "2026-03",
		" 2026-12 ": "2026-12",
	} {
		got, err := NormalizeMonth(in)
		if err != nil {
			t.Errorf("NormalizeMonth(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeMonth(%q) = %q, want %q", in, got, want)
		}
	}
	for _, in := range []string{"", "2026-13", "03.2026", "2026-3-1", "march"} {
		if got, err := NormalizeMonth(in); err == nil {
			t.Errorf("NormalizeMonth(%q) = %q, want error", in, got)
		}
	}
}

func TestMinutes(t *testing.T) {
	if m, ok := Minutes("14:30"); !ok || m != 870 {
		t.Fatalf("Minutes(14:30) = %d, %v", m, ok)
	}
	if _, ok := Minutes("garbage"); ok {
		t.Fatal("Minutes accepted garbage")
	}
	if _, ok := Minutes("14"); ok {
		t.Fatal("Minutes accepted value without minutes part")
	}
}

func TestSplitPriority(t *testing.T) {
	if base, prio := SplitPriority("20:00*"); base != "20:00" || !prio {
		t.Fatalf("SplitPriority(20:00*) = %q, %v", base, prio)
	}
	if base, prio := SplitPriority(" 11:00 "); base != "11:00" || prio {
		t.Fatalf("SplitPriority(11:00) = %q, %v", base, prio)
	}
}

func TestFormatPrepayment(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "✗"},
		{1, "✓"},
		{500, "500"},
		{499.5, "499.5"},
	}
	for _, c := range cases {
		if got := FormatPrepayment(c.in); got != c.want {
			t.Errorf("FormatPrepayment(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
