package intent

import (
	"github.com/voiceast/voiceast/models"
)

// Path partitions commands by their latency class.
type Path int

const (
	// FastPath commands are deterministic, local, and never touch a
	// remote model. Target latency is under 100ms.
	FastPath Path = iota
	// SlowPath commands call the language or vision model and may take
	// seconds; progress must still be reported.
	SlowPath
)

func (p Path) String() string {
	if p == SlowPath {
		return "slow"
	}
	return "fast"
}

// slowIntents is the fixed set of intents that require a remote model call.
// The partition is static so routing stays O(1) and never probes a remote
// service before deciding.
var slowIntents = map[models.Intent]struct{}{
	models.IntentConversational: {},
	models.IntentAnalyzeImage:   {},
}

// Route decides the execution path for a classified utterance. Pure, no
// side effects.
func Route(m models.IntentMatch) Path {
	if _, ok := slowIntents[m.Intent]; ok {
		return SlowPath
	}
	return FastPath
}
