package contracts

import "testing"

func TestPartition_Communities(t *testing.T) {
	p := &Partition{
		BySymbol: map[string]int{
			"AAPL": 0,
			"MSFT": 0,
			"TSLA": 1,
		},
	}

	if got := p.CommunityCount(); got != 2 {
		t.Errorf("CommunityCount() = %d, want 2", got)
	}

	ids := p.CommunityIDs()
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Errorf("CommunityIDs() = %v, want [0 1]", ids)
	}

	members := p.Members(0)
	if len(members) != 2 || members[0] != "AAPL" || members[1] != "MSFT" {
		t.Errorf("Members(0) = %v, want [AAPL MSFT]", members)
	}

	if got := p.Members(1); len(got) != 1 || got[0] != "TSLA" {
		t.Errorf("Members(1) = %v, want [TSLA]", got)
	}
}

func TestPartition_Covers(t *testing.T) {
	p := &Partition{
		BySymbol: map[string]int{"A": 0, "B": 0, "C": 1},
	}

	tests := []struct {
		name    string
		symbols []string
		want    bool
	}{
		{"exact cover", []string{"A", "B", "C"}, true},
		{"missing assignment", []string{"A", "B", "C", "D"}, false},
		{"extra assignment", []string{"A", "B"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Covers(tt.symbols); got != tt.want {
				t.Errorf("Covers(%v) = %v, want %v", tt.symbols, got, tt.want)
			}
		})
	}
}
