package analysis

import (
	"testing"

	"slot-advisor/internal/storage"
)

func TestDetectChains(t *testing.T) {
	hits := []storage.Hit{
		{Games: 500, Medals: 400, Type: "BB"},
		{Games: 50, Medals: 600, Type: "BB"},
		{Games: 30, Medals: 300, Type: "RB"},
		{Games: 200, Medals: 100, Type: "RB"},
	}

	chains := DetectChains(hits, 100)
	if len(chains) != 2 {
		t.Fatalf("chains = %d, want 2", len(chains))
	}
	if chains[0].Hits != 3 || chains[0].Medals != 1300 {
		t.Errorf("first chain = %+v, want 3 hits / 1300 medals", chains[0])
	}
	if chains[1].Hits != 1 || chains[1].Medals != 100 {
		t.Errorf("second chain = %+v, want 1 hit / 100 medals", chains[1])
	}
}

func TestMaxChainMedalsIsChainTotalNotSingleHit(t *testing.T) {
	// 連チェーン合計がその日の最大値になる
	hits := []storage.Hit{
		{Games: 300, Medals: 400, Type: "BB"},
		{Games: 80, Medals: 600, Type: "BB"},
		{Games: 90, Medals: 300, Type: "BB"},
		{Games: 400, Medals: 900, Type: "BB"},
	}
	if got := MaxChainMedals(hits, 100); got != 1300 {
		t.Errorf("MaxChainMedals = %d, want 1300 (chain total beats the 900 single)", got)
	}
}

func TestDetectChainsEmpty(t *testing.T) {
	if got := DetectChains(nil, 100); got != nil {
		t.Errorf("DetectChains(nil) = %v, want nil", got)
	}
	if got := MaxChainMedals(nil, 100); got != 0 {
		t.Errorf("MaxChainMedals(nil) = %d, want 0", got)
	}
}
