package order

import (
	"encoding/json"
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func extrasPtr(extras ...string) *[]string { return &extras }

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"Empty order", Empty(), false},
		{
			"All required fields",
			State{DrinkType: "Latte", Size: SizeMedium, Milk: "Oat", Name: "Sam"},
			true,
		},
		{
			"Complete without extras",
			State{DrinkType: "Americano", Size: SizeSmall, Milk: MilkNone, Extras: []string{}, Name: "Ana"},
			true,
		},
		{
			"Extras alone do not complete",
			State{Extras: []string{"Whipped Cream", "Ice"}},
			false,
		},
		{
			"Missing name",
			State{DrinkType: "Mocha", Size: SizeLarge, Milk: "Whole"},
			false,
		},
		{
			"Missing milk",
			State{DrinkType: "Mocha", Size: SizeLarge, Name: "Sam"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsComplete(); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Run("only present fields overwrite", func(t *testing.T) {
		s := State{DrinkType: "Latte", Size: SizeMedium, Milk: "Oat", Extras: []string{"Vanilla"}, Name: "Sam"}
		s.Apply(Partial{Size: strPtr(SizeLarge)})

		want := State{DrinkType: "Latte", Size: SizeLarge, Milk: "Oat", Extras: []string{"Vanilla"}, Name: "Sam"}
		if !reflect.DeepEqual(s, want) {
			t.Errorf("Apply() = %+v, want %+v", s, want)
		}
	})

	t.Run("last writer wins", func(t *testing.T) {
		s := Empty()
		s.Apply(Partial{DrinkType: strPtr("Latte")})
		s.Apply(Partial{DrinkType: strPtr("Cappuccino")})

		if s.DrinkType != "Cappuccino" {
			t.Errorf("Expected Cappuccino, got %s", s.DrinkType)
		}
	})

	t.Run("extras replace rather than union", func(t *testing.T) {
		s := State{Extras: []string{"Vanilla", "Caramel"}}
		s.Apply(Partial{Extras: extrasPtr("Ice")})

		if !reflect.DeepEqual(s.Extras, []string{"Ice"}) {
			t.Errorf("Expected extras to be replaced, got %v", s.Extras)
		}
	})

	t.Run("extras deduped on merge", func(t *testing.T) {
		s := Empty()
		s.Apply(Partial{Extras: extrasPtr("Ice", "Vanilla", "Ice")})

		if !reflect.DeepEqual(s.Extras, []string{"Ice", "Vanilla"}) {
			t.Errorf("Expected deduped extras, got %v", s.Extras)
		}
	})

	t.Run("explicit empty string overwrites", func(t *testing.T) {
		s := State{Milk: "Oat"}
		s.Apply(Partial{Milk: strPtr("")})

		if s.Milk != "" {
			t.Errorf("Expected milk to be cleared, got %q", s.Milk)
		}
	})
}

func TestPartialUnmarshal(t *testing.T) {
	var p Partial
	if err := json.Unmarshal([]byte(`{"drinkType":"Latte","extras":["Ice"]}`), &p); err != nil {
		t.Fatalf("Failed to unmarshal partial: %v", err)
	}

	if p.DrinkType == nil || *p.DrinkType != "Latte" {
		t.Error("Expected drinkType to be present")
	}
	if p.Size != nil {
		t.Error("Expected size to stay absent")
	}
	if p.Extras == nil || !reflect.DeepEqual(*p.Extras, []string{"Ice"}) {
		t.Errorf("Expected extras [Ice], got %v", p.Extras)
	}
}

func TestNormalized(t *testing.T) {
	s := State{Extras: []string{"Ice", "Ice", "Vanilla"}}
	got := s.Normalized()

	if !reflect.DeepEqual(got.Extras, []string{"Ice", "Vanilla"}) {
		t.Errorf("Normalized() extras = %v, want [Ice Vanilla]", got.Extras)
	}

	var nilExtras State
	if norm := nilExtras.Normalized(); norm.Extras == nil {
		t.Error("Expected normalized extras to be non-nil")
	}
}

func TestDisplay(t *testing.T) {
	if got := Display(""); got != Placeholder {
		t.Errorf("Display(\"\") = %q, want placeholder", got)
	}
	if got := Display("Latte"); got != "Latte" {
		t.Errorf("Display(\"Latte\") = %q", got)
	}
}
