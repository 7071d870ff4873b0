package proof

import (
	"testing"
)

func TestCommitDeterminism(t *testing.T) {
	a, err := Commit("https://example.com/pr/42")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	b, err := Commit("https://example.com/pr/42")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if a != b {
		t.Errorf("same text produced different commitments: %s vs %s", a, b)
	}

	c, err := Commit("https://example.com/pr/43")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if a == c {
		t.Error("different texts produced identical commitments")
	}

	parsed, err := ParseCommitment(a.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != a {
		t.Error("commitment did not round-trip through hex")
	}
}

func TestParseCommitmentRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "zz", "abcd"} {
		if _, err := ParseCommitment(s); err == nil {
			t.Errorf("ParseCommitment(%q) should fail", s)
		}
	}
}

func TestProveVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}

	sys, err := Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	const secret = "merged in commit deadbeef, see PR #42"
	prf, commitment, err := sys.Prove(secret)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}

	if err := sys.Verify(prf, commitment); err != nil {
		t.Errorf("verify: %v", err)
	}

	// A proof does not transfer to a different commitment.
	wrong, err := Commit("some other text entirely")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := sys.Verify(prf, wrong); err == nil {
		t.Error("proof verified against the wrong commitment")
	}
}
