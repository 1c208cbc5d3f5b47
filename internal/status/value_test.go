package status

import "testing"

func TestValue_Accessors(t *testing.T) {
	doc, err := Parse([]byte(`{"a":{"b":[1.5,"two",true,null]},"n":7}`), 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	arr := doc.Get("a").Get("b")
	if got := arr.Index(0).FloatOr(-1); got != 1.5 {
		t.Errorf("b[0] = %v, want 1.5", got)
	}
	if got := arr.Index(1).StringOr(""); got != "two" {
		t.Errorf("b[1] = %q, want %q", got, "two")
	}
	if got := arr.Index(2).BoolOr(false); !got {
		t.Error("b[2] = false, want true")
	}
	if arr.Index(3).Exists() {
		t.Error("null element should not exist")
	}
	if arr.Index(9).Exists() || arr.Index(-1).Exists() {
		t.Error("out of range index should not exist")
	}
	if got := doc.Get("n").IntOr(-1); got != 7 {
		t.Errorf("n = %d, want 7", got)
	}

	// Wrong types fall back to the default.
	if got := doc.Get("n").StringOr("def"); got != "def" {
		t.Errorf("StringOr on number = %q, want %q", got, "def")
	}
	if got := doc.Get("missing").Get("deeper").Index(0).FloatOr(3); got != 3 {
		t.Errorf("missing chain = %v, want 3", got)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte(`{`), 0); err == nil {
		t.Error("Parse() of truncated JSON should fail")
	}
	if _, err := Parse([]byte(`{"a":1}`), 3); err == nil {
		t.Error("Parse() over the limit should fail")
	}
}
