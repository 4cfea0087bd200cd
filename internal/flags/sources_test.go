package flags

import "testing"

func TestParseQuery_EnableDisable(t *testing.T) {
	overrides := ParseQuery("enable-charts=true&disable-performance=true&unrelated=1")

	if enabled, ok := overrides.Flags["charts"]; !ok || !enabled {
		t.Fatalf("expected charts enabled, got %+v", overrides.Flags)
	}
	if enabled, ok := overrides.Flags["performance"]; !ok || enabled {
		t.Fatalf("expected performance disabled, got %+v", overrides.Flags)
	}
	if _, ok := overrides.Flags["unrelated"]; ok {
		t.Fatalf("unexpected override for unrelated parameter: %+v", overrides.Flags)
	}
	if overrides.EnableAll {
		t.Fatal("enable-all should not be set")
	}
}

func TestParseQuery_DisableWinsOverEnable(t *testing.T) {
	overrides := ParseQuery("enable-charts=true&disable-charts=true")

	if enabled := overrides.Flags["charts"]; enabled {
		t.Fatal("expected disable to win for the same flag")
	}
}

func TestParseQuery_EnableAllParameter(t *testing.T) {
	overrides := ParseQuery("enhance-all=true")
	if !overrides.EnableAll {
		t.Fatal("expected enable-all override")
	}

	overrides = ParseQuery("enhance-all=false")
	if overrides.EnableAll {
		t.Fatal("expected falsy value to leave enable-all unset")
	}
}

func TestParseQuery_IgnoresNonTruthyValues(t *testing.T) {
	overrides := ParseQuery("enable-charts=0&disable-performance=no")

	if len(overrides.Flags) != 0 {
		t.Fatalf("expected no overrides, got %+v", overrides.Flags)
	}
}

func TestParseQuery_MalformedAndEmpty(t *testing.T) {
	if got := ParseQuery(""); len(got.Flags) != 0 || got.EnableAll {
		t.Fatalf("expected empty overrides, got %+v", got)
	}
	if got := ParseQuery("%zz=1"); len(got.Flags) != 0 || got.EnableAll {
		t.Fatalf("expected malformed query to yield empty overrides, got %+v", got)
	}
}
