package vm

import (
	"reflect"
	"testing"

	"github.com/chazu/kkipple/compiler"
)

func TestVariantOf(t *testing.T) {
	tests := []struct {
		name string
		want Variant
	}{
		{"A", Generic},
		{"zz", Generic},
		{"o", IO},
		{"io", IO},
		{"@", Digits},
		{"&", Exec},
		{"0", Null},
		{"C", Copy},
	}
	for _, tc := range tests {
		if got := VariantOf(tc.name); got != tc.want {
			t.Errorf("VariantOf(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestParseVariant(t *testing.T) {
	for v := Generic; v <= Copy; v++ {
		got, err := ParseVariant(v.String())
		if err != nil || got != v {
			t.Errorf("ParseVariant(%q) = %v, %v", v.String(), got, err)
		}
	}
	if _, err := ParseVariant("bogus"); err == nil {
		t.Error("ParseVariant(bogus) succeeded")
	}
}

func TestNewStackInitialState(t *testing.T) {
	c := newStack("C", Copy)
	if !reflect.DeepEqual(c.Values(), []int64{0}) {
		t.Errorf("copy stack starts as %v, want [0]", c.Values())
	}
	d := newStack("@", Digits)
	if !d.Expanding() {
		t.Error("digits stack should start expanding")
	}
	g := newStack("A", Generic)
	if !g.Empty() || g.take() != 0 {
		t.Error("empty generic stack should pop 0")
	}
}

func TestValuesIsACopy(t *testing.T) {
	s := newStack("A", Generic)
	s.append(1)
	vals := s.Values()
	vals[0] = 99
	if s.top() != 1 {
		t.Errorf("Values aliases the stack")
	}
}

func TestRegistryLookupCreatesOnce(t *testing.T) {
	r := NewRegistry()
	a := r.Lookup("A")
	if r.Lookup("A") != a {
		t.Error("Lookup created a second stack")
	}
	r.Lookup("@")
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
	if _, ok := r.Get("B"); ok {
		t.Error("Get created a stack")
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"@", "A"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestTracker(t *testing.T) {
	var tr Tracker
	own := compiler.Position{Offset: 4, Line: 1, Column: 5}
	at := compiler.Position{Offset: 9, Line: 2, Column: 3}

	if tr.Resolve(own) != own {
		t.Error("unfrozen tracker changed the position")
	}
	tr.Freeze(at)
	if !tr.Frozen() || tr.Resolve(own) != at {
		t.Error("frozen tracker did not pin the position")
	}
	tr.Thaw()
	if tr.Frozen() || tr.Resolve(own) != own {
		t.Error("thawed tracker still pinned")
	}
}
