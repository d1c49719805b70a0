package cardid

import "testing"

func TestNormalizeEquivalentForms(t *testing.T) {
    const want = "04:A3:9C:1B"
    inputs := []string{
        "04a39c1b",
        "04a3 9c1b",
        "04-A3-9C-1B",
        "04:a3:9c:1b",
        "04:A3:9C:1B",
        "  04:A3:9C:1B  ",
    }
    for _, in := range inputs {
        if got := Normalize(in); got != want {
            t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
        }
    }
}

func TestNormalizeIdempotent(t *testing.T) {
    inputs := []string{
        "04a39c1b",
        "04-A3-9C-1B",
        "ABC",
        "zz-not-hex",
        "",
        "aa:bb:cc:dd",
    }
    for _, in := range inputs {
        once := Normalize(in)
        twice := Normalize(once)
        if once != twice {
            t.Fatalf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
        }
    }
}

func TestNormalizeOddLengthFallback(t *testing.T) {
    // Three hex digits cannot be regrouped into octets; the uppercased
    // original passes through untouched.
    if got := Normalize("abc"); got != "ABC" {
        t.Fatalf("Normalize(\"abc\") = %q, want \"ABC\"", got)
    }
    if got := Normalize("ABC"); got != "ABC" {
        t.Fatalf("Normalize(\"ABC\") = %q, want \"ABC\"", got)
    }
}

func TestNormalizeNoHexFallback(t *testing.T) {
    if got := Normalize("zz--zz"); got != "ZZ--ZZ" {
        t.Fatalf("Normalize(\"zz--zz\") = %q, want \"ZZ--ZZ\"", got)
    }
}

func TestNormalizeSingleOctet(t *testing.T) {
    if got := Normalize("4a"); got != "4A" {
        t.Fatalf("Normalize(\"4a\") = %q, want \"4A\"", got)
    }
}

func TestIsCanonical(t *testing.T) {
    cases := map[string]bool{
        "04:A3:9C:1B": true,
        "4A":          true,
        "04:a3":       false,
        "04A39C1B":    false,
        "":            false,
        "04:A3:9C:1":  false,
    }
    for in, want := range cases {
        if got := IsCanonical(in); got != want {
            t.Fatalf("IsCanonical(%q) = %v, want %v", in, got, want)
        }
    }
}
