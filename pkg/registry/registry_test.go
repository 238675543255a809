package registry

import (
	"reflect"
	"testing"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/transform"
)

func TestVersions(t *testing.T) {
	got := Default().Versions()
	want := []qconvert.FHIRVersion{qconvert.STU3, qconvert.R4, qconvert.R4B, qconvert.R5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Versions() = %v, want %v", got, want)
	}
}

func TestLookup(t *testing.T) {
	e, ok := Default().Lookup(qconvert.R4B)
	if !ok {
		t.Fatal("Lookup(R4B) not found")
	}
	if e.Index != 2 {
		t.Errorf("Index = %d, want 2", e.Index)
	}
	if e.ProfileURL != "http://hl7.org/fhir/4.3/StructureDefinition/Questionnaire" {
		t.Errorf("ProfileURL = %q", e.ProfileURL)
	}
	if _, ok := Default().Lookup("DSTU2"); ok {
		t.Error("Lookup(DSTU2) should fail")
	}
}

func TestEntriesLinkNeighbours(t *testing.T) {
	entries := Default().Entries()
	for i, e := range entries {
		if (e.Up == nil) != (i == len(entries)-1) {
			t.Errorf("%s: Up presence wrong", e.Version)
		}
		if (e.Down == nil) != (i == 0) {
			t.Errorf("%s: Down presence wrong", e.Version)
		}
	}
}

func TestResolveChainLength(t *testing.T) {
	versions := Default().Versions()
	for i, from := range versions {
		for j, to := range versions {
			steps := ResolveChain(from, to)
			if i == j {
				if steps != nil {
					t.Errorf("ResolveChain(%s, %s) = %d steps, want nil", from, to, len(steps))
				}
				continue
			}
			want := j - i
			if want < 0 {
				want = -want
			}
			if len(steps) != want {
				t.Errorf("ResolveChain(%s, %s) = %d steps, want %d", from, to, len(steps), want)
			}
			for k, s := range steps {
				if s == nil {
					t.Errorf("ResolveChain(%s, %s) step %d is nil", from, to, k)
				}
			}
		}
	}
}

func TestResolveChainUnknown(t *testing.T) {
	if got := ResolveChain("R6", qconvert.R4); got != nil {
		t.Errorf("ResolveChain(R6, R4) = %v, want nil", got)
	}
	if got := ResolveChain(qconvert.R4, ""); got != nil {
		t.Errorf("ResolveChain(R4, \"\") = %v, want nil", got)
	}
}

func TestResolveChainOrder(t *testing.T) {
	steps := ResolveChain(qconvert.R5, qconvert.STU3)
	want := []transform.Func{transform.R5ToR4B, transform.R4BToR4, transform.R4ToSTU3}
	if len(steps) != len(want) {
		t.Fatalf("len = %d, want %d", len(steps), len(want))
	}
	for i := range want {
		if reflect.ValueOf(steps[i]).Pointer() != reflect.ValueOf(want[i]).Pointer() {
			t.Errorf("step %d is not the expected transformer", i)
		}
	}
}

func TestPath(t *testing.T) {
	got := Default().Path(qconvert.R5, qconvert.R4)
	want := []qconvert.FHIRVersion{qconvert.R5, qconvert.R4B, qconvert.R4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Path(R5, R4) = %v, want %v", got, want)
	}
	if got := Default().Path(qconvert.R4, qconvert.R4); got != nil {
		t.Errorf("Path(R4, R4) = %v, want nil", got)
	}
}
