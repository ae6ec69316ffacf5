package domain

import "testing"

func TestIsSellable(t *testing.T) {
	tests := []struct {
		name string
		card CollectionCard
		want bool
	}{
		{"gladius never", CollectionCard{Edition: EditionGladius, BCX: 1, BCXUnbound: 1}, false},
		{"soulbound fully unbound", CollectionCard{Edition: EditionSoulbound, BCX: 5, BCXUnbound: 5}, true},
		{"soulbound partly bound", CollectionCard{Edition: EditionSoulbound, BCX: 5, BCXUnbound: 2}, false},
		{"soulboundrb fully unbound", CollectionCard{Edition: EditionSoulboundRB, BCX: 1, BCXUnbound: 1}, true},
		{"soulboundrb bound", CollectionCard{Edition: EditionSoulboundRB, BCX: 1, BCXUnbound: 0}, false},
		{"beta always", CollectionCard{Edition: EditionBeta, BCX: 3, BCXUnbound: 0}, true},
		{"rebellion always", CollectionCard{Edition: EditionRebellion, BCX: 1, BCXUnbound: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSellable(tt.card); got != tt.want {
				t.Errorf("IsSellable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEditionString(t *testing.T) {
	if got := EditionSoulboundRB.String(); got != "soulboundrb" {
		t.Errorf("String() = %q, want soulboundrb", got)
	}
	if got := Edition(99).String(); got != "edition99" {
		t.Errorf("String() = %q, want edition99", got)
	}
	if len(Editions) != 14 {
		t.Errorf("len(Editions) = %d, want 14", len(Editions))
	}
}

func TestGroupKeyIgnoresUID(t *testing.T) {
	a := CollectionCard{Player: "alice", UID: "C1-10-AAA", CardDetailID: 10, Edition: EditionBeta, BCX: 1, Level: 1}
	b := a
	b.UID = "C1-10-BBB"
	if a.GroupKey() != b.GroupKey() {
		t.Error("cards differing only by uid should share a group key")
	}
	if got := a.GroupKey().Variant().String(); got != "10/regular/beta" {
		t.Errorf("Variant().String() = %q", got)
	}
}
