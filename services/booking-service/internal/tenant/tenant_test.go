package tenant

import "testing"

func TestSchemaFor(t *testing.T) {
	cases := []struct {
		tgID int64
		want string
	}{
		{42, "user_42"},
		{-42, "user_42"},
		{123456789, "user_123456789"},
	}
	for _, c := range cases {
		if got := SchemaFor(c.tgID); got != c.want {
			t.Errorf("SchemaFor(%d) = %q, want %q", c.tgID, got, c.want)
		}
	}
}

func TestSchemaForIsStable(t *testing.T) {
	if SchemaFor(7) != SchemaFor(7) {
		t.Fatal("SchemaFor must be deterministic")
	}
	if SchemaFor(7) != SchemaFor(-7) {
		t.Fatal("sign of the account id must not change the schema")
	}
}
