package simhash

import (
	"testing"
)

const productPage = `<html><head><title>Ryobi Drill</title>
<script>window.__state = {"cart": 0}</script></head>
<body><div class="product"><h1>Ryobi 18V ONE+ Drill Driver</h1>
<dl><dt>Model Number</dt><dd>R18PD3-0</dd></dl></div></body></html>`

func TestFingerprint(t *testing.T) {
	base := "ryobi 18v one+ drill driver with two batteries and charger"
	fp := Fingerprint(base)

	if d := Distance(fp, Fingerprint(base)); d != 0 {
		t.Errorf("identical text: Distance = %d, want 0", d)
	}

	// Absolute distances depend on the hash; the ordering does not.
	near := Distance(fp, Fingerprint("ryobi 18v one+ drill driver with two batteries and case"))
	far := Distance(fp, Fingerprint("bosch professional laser level tripod kit in carry bag"))
	if near == 0 {
		t.Error("one word swapped: fingerprint unchanged")
	}
	if near >= far {
		t.Errorf("one word swapped: Distance = %d, want below unrelated text's %d", near, far)
	}
}

func TestFingerprint_Blank(t *testing.T) {
	for _, in := range []string{"", "   \t\n  "} {
		if fp := Fingerprint(in); fp != 0 {
			t.Errorf("Fingerprint(%q) = %064b, want 0", in, fp)
		}
	}
	if Fingerprint("ozito") == 0 {
		t.Error("single word should produce a non-zero fingerprint")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	a := Fingerprint("ryobi drill")
	b := Fingerprint("jobmate claw hammer twenty ounce")
	d := Distance(a, b)

	if !Similar(a, a, 0) {
		t.Error("a fingerprint is similar to itself at threshold 0")
	}
	if d > 0 && Similar(a, b, d-1) {
		t.Errorf("threshold %d is below the distance %d", d-1, d)
	}
	if !Similar(a, b, d) {
		t.Errorf("threshold equal to the distance (%d) should be similar", d)
	}
}

func TestFingerprintDOM(t *testing.T) {
	textOnly := `<html><head><title>A</title></head><body><div><h1>Ozito Sander</h1><p>Sold out</p></div></body></html>`
	reworded := `<html><head><title>B</title></head><body><div><h1>Ozito Jigsaw</h1><p>In stock</p></div></body></html>`
	withSpecs := `<html><head><title>B</title></head><body><div><h1>Ozito Jigsaw</h1><p>In stock</p>
<dl><dt>Brand</dt><dd>Ozito</dd><dt>Model Number</dt><dd>JSW-800</dd></dl></div></body></html>`

	if FingerprintDOM(textOnly) != FingerprintDOM(reworded) {
		t.Error("text-only changes must keep the structure fingerprint")
	}
	if FingerprintDOM(textOnly) == FingerprintDOM(withSpecs) {
		t.Error("an inserted spec table must change the structure fingerprint")
	}
	if fp := FingerprintDOM(""); fp != 0 {
		t.Errorf("empty markup = %064b, want 0", fp)
	}
	if fp := FingerprintDOM("no tags here"); fp != 0 {
		t.Errorf("plain text = %064b, want 0", fp)
	}
	if FingerprintDOM("<br/>") == 0 {
		t.Error("a single tag should produce a non-zero fingerprint")
	}
}

func TestOpenTags(t *testing.T) {
	got := openTags(`<html><body><dl><dt>Brand</dt><dd>Ryobi</dd></dl><img src="x"/></body></html>`)
	want := []string{"html", "body", "dl", "dt", "dd", "img"}

	if len(got) != len(want) {
		t.Fatalf("openTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShingles(t *testing.T) {
	got := shingles([]string{"dl", "dt", "dd", "dt"}, 3)
	want := []string{"dl_dt_dd", "dt_dd_dt"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("shingles = %v, want %v", got, want)
	}
	if s := shingles([]string{"a", "b"}, 3); s != nil {
		t.Errorf("too few tokens = %v, want nil", s)
	}
}

func TestPage(t *testing.T) {
	a := Page(productPage)
	b := Page(productPage)
	if !a.Same(b) || a.Drift(b) != 0 {
		t.Errorf("identical markup: Same=%v Drift=%d", a.Same(b), a.Drift(b))
	}

	scriptOnly := Page(`<html><head><title>Ryobi Drill</title>
<script>window.__state = {"cart": 3}</script></head>
<body><div class="product"><h1>Ryobi 18V ONE+ Drill Driver</h1>
<dl><dt>Model Number</dt><dd>R18PD3-0</dd></dl></div></body></html>`)
	if a.Same(scriptOnly) {
		t.Error("different markup must not be Same")
	}
	if a.Text != scriptOnly.Text {
		t.Error("script contents must not affect the text fingerprint")
	}
}

func TestVisibleText(t *testing.T) {
	got := visibleText(`<p>Ryobi</p><script>var x = "hidden";</script><style>p{}</style><span>Drill</span>`)
	if Fingerprint(got) != Fingerprint("Ryobi Drill") {
		t.Errorf("visibleText = %q, want only Ryobi and Drill", got)
	}
}
