package enrich

import (
	"strings"
	"testing"
)

func TestParseDelimited(t *testing.T) {
	resp := "1. 第一条新闻\n---\n2. 第二条新闻\n---\n3. 第三条新闻"
	got, err := ParseDelimited(resp, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"第一条新闻", "第二条新闻", "第三条新闻"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d: %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseDelimitedWithoutNumbering(t *testing.T) {
	got, err := ParseDelimited("alpha --- beta", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("got %v", got)
	}
}

func TestParseDelimitedCountMismatch(t *testing.T) {
	// A short reply must fail the whole batch; the caller keeps originals
	// rather than risking a cross-item swap.
	if _, err := ParseDelimited("1. only one segment", 3); err == nil {
		t.Fatal("expected count-mismatch error")
	}
	if _, err := ParseDelimited("1. a\n---\n2. b\n---\n3. c\n---\n4. d", 3); err == nil {
		t.Fatal("expected count-mismatch error for extra segment")
	}
}

func TestParseDelimitedNoCrossItemSwap(t *testing.T) {
	// Model merged two items into one segment: count drops, so nothing may
	// be attributed at all.
	resp := "1. first and second combined\n---\n3. third"
	if _, err := ParseDelimited(resp, 3); err == nil {
		t.Fatal("mismatched batch must not produce partial translations")
	}
}

func TestTrimNumberPrefix(t *testing.T) {
	cases := map[string]string{
		"1. hello":        "hello",
		"12.  spaced":     "spaced",
		"no prefix":       "no prefix",
		"2026 unrelated":  "2026 unrelated",
		"3.14 keeps rest": "14 keeps rest", // dot after digits is treated as numbering
	}
	for in, want := range cases {
		if got := trimNumberPrefix(in); got != want {
			t.Errorf("trimNumberPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSignalsRelevant(t *testing.T) {
	cases := []struct {
		resp string
		want bool
	}{
		{"relevant", true},
		{"Relevant.", true},
		{"This item is relevant to the region", true},
		{"irrelevant", false},
		{"Irrelevant", false},
		{"not relevant", false},
		{"unclear answer", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := signalsRelevant(tc.resp); got != tc.want {
			t.Errorf("signalsRelevant(%q) = %v, want %v", tc.resp, got, tc.want)
		}
	}
}

func TestNilClientIsPassThrough(t *testing.T) {
	var c *Client
	c.Close()
	c.TranslateItems(nil, nil)
	if got := c.Cost(); got.Calls != 0 {
		t.Errorf("nil client cost %v", got)
	}
}

func TestCostReport(t *testing.T) {
	c := Cost{Calls: 4, PromptTokens: 2_000_000, OutputTokens: 1_000_000}
	if usd := c.EstimatedUSD(); usd < 0.44 || usd > 0.46 {
		t.Errorf("estimated cost %.4f, want ~0.45", usd)
	}
	if !strings.Contains(c.String(), "4 calls") {
		t.Errorf("report %q missing call count", c.String())
	}
}
