package types

import "testing"

func TestIsAssignableFrom(t *testing.T) {
	u := NewUniverse()
	shape, err := u.DeclareClass("Shape", nil)
	if err != nil {
		t.Fatalf("declare Shape: %v", err)
	}
	circle, err := u.DeclareClass("Circle", shape)
	if err != nil {
		t.Fatalf("declare Circle: %v", err)
	}
	color, err := u.DeclareEnum("Color", []string{"RED", "GREEN"})
	if err != nil {
		t.Fatalf("declare Color: %v", err)
	}

	tests := []struct {
		to, from *Type
		want     bool
	}{
		{Object, Integer, true},
		{Number, Integer, true},
		{Integer, Number, false},
		{Object, circle, true},
		{shape, circle, true},
		{circle, shape, false},
		{String, Integer, false},
		{Object, color, true},
		{color, Null, true},
		{Int, Null, false},
		{Int, Int, true},
		{Int, Integer, false},
	}
	for _, tt := range tests {
		if got := tt.to.IsAssignableFrom(tt.from); got != tt.want {
			t.Errorf("%s.IsAssignableFrom(%s) = %v, want %v", tt.to, tt.from, got, tt.want)
		}
	}
}

func TestBoxing(t *testing.T) {
	if Int.Box() != Integer {
		t.Errorf("expected int to box to Integer, got %s", Int.Box())
	}
	if Bool.Box() != Boolean {
		t.Errorf("expected boolean to box to Boolean, got %s", Bool.Box())
	}
	if String.Box() != String {
		t.Errorf("expected String to box to itself")
	}
	if Integer.Unbox() != Int {
		t.Errorf("expected Integer to unbox to int")
	}
	if String.Unbox() != nil {
		t.Errorf("expected String not to unbox")
	}
}

func TestUniverseLookupAndRedeclare(t *testing.T) {
	u := NewUniverse()
	if u.Lookup("Integer") != Integer {
		t.Fatal("expected builtin Integer")
	}
	if u.Lookup("Circle") != nil {
		t.Fatal("expected unknown type to be nil")
	}
	if _, err := u.DeclareClass("String", nil); err == nil {
		t.Error("expected error redeclaring a builtin")
	}
	if _, err := u.DeclareEnum("E", []string{"A", "A"}); err == nil {
		t.Error("expected error for duplicate enum constant")
	}
	e, err := u.DeclareEnum("Suit", []string{"HEARTS", "SPADES"})
	if err != nil {
		t.Fatalf("declare Suit: %v", err)
	}
	if e.Ordinal("SPADES") != 1 || e.Ordinal("CLUBS") != -1 {
		t.Errorf("unexpected ordinals for Suit")
	}
	if u.EnumWithConstant("HEARTS") != e {
		t.Errorf("expected HEARTS to resolve to Suit")
	}
	if got := Describe(Integer); got != "Integer <: Number <: Object" {
		t.Errorf("Describe(Integer) = %q", got)
	}
}
