package resolve

import (
	"testing"
)

func TestResolve_Idempotent(t *testing.T) {
	r := New(Config{MainParty: "Acme"})

	first := r.Resolve("Google Analytics")
	second := r.Resolve("Google Analytics")
	if first != second {
		t.Fatalf("expected identical entity for repeated mention, got %p and %p", first, second)
	}
}

func TestResolve_AliasMergeAnyPermutation(t *testing.T) {
	aliases := []string{"Acme", "Acme Inc.", "ACME INC"}
	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1},
		{1, 0, 2}, {1, 2, 0},
		{2, 0, 1}, {2, 1, 0},
	}

	for _, perm := range permutations {
		r := New(Config{})

		var entities []*Entity
		for _, i := range perm {
			entities = append(entities, r.Resolve(aliases[i]))
		}

		for i := 1; i < len(entities); i++ {
			if entities[i] != entities[0] {
				t.Fatalf("permutation %v: mention %q resolved to a different entity", perm, aliases[perm[i]])
			}
		}
		for _, alias := range aliases {
			if !entities[0].HasAlias(alias) {
				t.Fatalf("permutation %v: alias %q missing from merged entity", perm, alias)
			}
		}
	}
}

func TestResolve_PronounsLandOnMainParty(t *testing.T) {
	r := New(Config{MainParty: "Acme Corporation"})
	main := r.MainParty()
	if main == nil {
		t.Fatal("expected main party entity")
	}

	for _, mention := range []string{"we", "We", "us", "our", "this website", "Our Company"} {
		if got := r.Resolve(mention); got != main {
			t.Fatalf("mention %q resolved to %q, expected main party", mention, got.CanonicalName)
		}
	}
	if main.Class != PartyFirst {
		t.Fatalf("expected main party class %q, got %q", PartyFirst, main.Class)
	}
}

func TestResolve_PronounWithoutMainPartyIsUnknown(t *testing.T) {
	r := New(Config{})
	got := r.Resolve("we")
	if got != r.Unknown() {
		t.Fatalf("expected unknown entity, got %q", got.CanonicalName)
	}
	if r.UnknownHits() == 0 {
		t.Fatal("expected unknown hit counter to increase")
	}
}

func TestResolve_EmptyMentionIsUnknown(t *testing.T) {
	r := New(Config{MainParty: "Acme"})
	if got := r.Resolve("   "); got != r.Unknown() {
		t.Fatalf("expected unknown entity, got %q", got.CanonicalName)
	}
}

func TestResolve_InlineAbbreviation(t *testing.T) {
	r := New(Config{MainParty: "Acme"})

	full := r.Resolve("Global Positioning System (GPS)")
	if full.CanonicalName != "Global Positioning System" {
		t.Fatalf("expected parenthetical stripped from canonical name, got %q", full.CanonicalName)
	}

	short := r.Resolve("GPS")
	if short != full {
		t.Fatalf("expected bare acronym to resolve to the defining entity, got %q", short.CanonicalName)
	}
	if !full.HasAlias("GPS") {
		t.Fatal("expected GPS recorded as alias")
	}
}

func TestResolve_MainPartyContainment(t *testing.T) {
	r := New(Config{MainParty: "Renault"})
	got := r.Resolve("Renault Group")
	if got != r.MainParty() {
		t.Fatalf("expected main party for %q, got %q", "Renault Group", got.CanonicalName)
	}
}

func TestResolve_AliasOverrides(t *testing.T) {
	r := New(Config{
		MainParty:      "Acme",
		AliasOverrides: map[string]string{"big g": "Google"},
	})

	google := r.Resolve("Google")
	if got := r.Resolve("Big G"); got != google {
		t.Fatalf("expected override to land on Google, got %q", got.CanonicalName)
	}
}

func TestResolve_Classification(t *testing.T) {
	r := New(Config{MainParty: "Acme"})

	tests := []struct {
		mention string
		class   PartyClass
	}{
		{"users", PartyUser},
		{"customers", PartyUser},
		{"Google Analytics", PartyThird},
		{"advertising partners", PartyThird},
	}
	for _, tt := range tests {
		got := r.Resolve(tt.mention)
		if got.Class != tt.class {
			t.Fatalf("mention %q: expected class %q, got %q", tt.mention, tt.class, got.Class)
		}
	}
}

func TestResolve_EntitiesCreationOrder(t *testing.T) {
	r := New(Config{MainParty: "Acme"})
	r.Resolve("Google")
	r.Resolve("Facebook")

	entities := r.Entities()
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(entities))
	}
	if entities[0].CanonicalName != "Acme" || entities[1].CanonicalName != "Google" || entities[2].CanonicalName != "Facebook" {
		t.Fatalf("unexpected entity order: %q, %q, %q",
			entities[0].CanonicalName, entities[1].CanonicalName, entities[2].CanonicalName)
	}

	// unknown joins the list only once something resolves to it
	r.Resolve("")
	entities = r.Entities()
	if len(entities) != 4 || entities[3] != r.Unknown() {
		t.Fatalf("expected unknown entity appended, got %d entities", len(entities))
	}
}
