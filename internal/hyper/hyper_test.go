package hyper_test

import (
	"reflect"
	"testing"

	"github.com/seqrec/hypersweep/internal/family"
	"github.com/seqrec/hypersweep/internal/hyper"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := hyper.Params{"a": 1, "b": 2, "loss": "bpr"}
	b := hyper.Params{"loss": "bpr", "b": 2, "a": 1}

	fpA, err := hyper.Fingerprint(a)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fpB, err := hyper.Fingerprint(b)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fpA != fpB {
		t.Errorf("equal mappings fingerprint differently: %s vs %s", fpA, fpB)
	}
}

func TestFingerprintSensitive(t *testing.T) {
	base := hyper.Params{"a": 1}
	tests := []struct {
		name  string
		other hyper.Params
	}{
		{"different value", hyper.Params{"a": 2}},
		{"different key", hyper.Params{"b": 1}},
		{"extra key", hyper.Params{"a": 1, "b": 1}},
		{"different type", hyper.Params{"a": "1"}},
	}

	fpBase, err := hyper.Fingerprint(base)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp, err := hyper.Fingerprint(tt.other)
			if err != nil {
				t.Fatalf("Fingerprint: %v", err)
			}
			if fp == fpBase {
				t.Errorf("%v and %v share fingerprint %s", base, tt.other, fp)
			}
		})
	}
}

// Stored records come back from JSON with numbers as float64 and sequences as
// []any; their fingerprints must still match the originals.
func TestFingerprintNumericEquivalence(t *testing.T) {
	original := hyper.Params{"batch_size": 256, "dilation": []int{1, 2, 4}}
	reread := hyper.Params{"batch_size": float64(256), "dilation": []any{float64(1), float64(2), float64(4)}}

	fpA, err := hyper.Fingerprint(original)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fpB, err := hyper.Fingerprint(reread)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fpA != fpB {
		t.Errorf("integral float re-read fingerprints differently: %s vs %s", fpA, fpB)
	}
}

// Membership in the result store is defined via the fingerprint, so equal
// fingerprints must mean equal hyperparameter sets across a realistic sweep.
func TestFingerprintNoCollisionsAcrossSweep(t *testing.T) {
	fam, err := family.ForName("cnn")
	if err != nil {
		t.Fatalf("ForName: %v", err)
	}
	sets, err := fam.Sample(500, 42)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	seen := make(map[string]hyper.Params)
	for _, p := range sets {
		fp, err := hyper.Fingerprint(p)
		if err != nil {
			t.Fatalf("Fingerprint: %v", err)
		}
		if prev, ok := seen[fp]; ok {
			if !reflect.DeepEqual(prev, p) {
				t.Fatalf("collision: %v and %v share fingerprint %s", prev, p, fp)
			}
			continue
		}
		seen[fp] = p
	}
}
