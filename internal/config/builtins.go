package config

// Built-in machine profiles. Values come from published spec sheets and are
// used when the configuration file does not override them.
var builtinMachines = map[string]MachineProfile{
	"sbj": {
		Name:              "Lord of Vermilion",
		GoodProb:          130,
		BadProb:           150,
		VeryBadProb:       200,
		MinHits:           20,
		TypicalDailyGames: 7000,
		NormalCeiling:     800,
		ResetCeiling:      600,
		ResetFirstHit:     true,
		CeilingResetTypes: []string{"ART", "AT", "BB", "BIG"},
		ChainGap:          100,
		DiffAlpha:         1.0,
	},
	"hokuto2": {
		Name:              "Hokuto No Ken",
		GoodProb:          120,
		BadProb:           150,
		VeryBadProb:       250,
		MinHits:           10,
		TypicalDailyGames: 6000,
		NormalCeiling:     1500,
		ResetCeiling:      600,
		ResetFirstHit:     true,
		CeilingResetTypes: []string{"AT", "BB", "BIG"},
		ChainGap:          100,
		DiffAlpha:         1.58,
	},
}

func mergeBuiltinMachines(user map[string]MachineProfile) map[string]MachineProfile {
	out := make(map[string]MachineProfile, len(builtinMachines)+len(user))
	for key, m := range builtinMachines {
		out[key] = m
	}
	for key, m := range user {
		out[key] = m
	}
	return out
}
