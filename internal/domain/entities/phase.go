package entities

// Phase represents one of the six pedagogical phases of the training
// program. The user moves through them roughly in order, but every phase
// stays reachable at any time.
type Phase string

const (
	PhasePriming      Phase = "priming"      // first exposure, browse a category without testing
	PhaseEncoding     Phase = "encoding"     // attach personal mnemonics to numbers
	PhaseReference    Phase = "reference"    // full table lookup
	PhaseRetrieval    Phase = "retrieval"    // active-recall quizzes per category
	PhaseInterleaving Phase = "interleaving" // mixed-category practice
	PhaseOverlearning Phase = "overlearning" // timed speed drills
)

// Phases lists all phases in pedagogical order.
var Phases = []Phase{
	PhasePriming,
	PhaseEncoding,
	PhaseReference,
	PhaseRetrieval,
	PhaseInterleaving,
	PhaseOverlearning,
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// DefaultPhase is where a fresh user starts.
const DefaultPhase = PhasePriming

// SpeedMode identifies a timed speed drill variant.
type SpeedMode string

const (
	SpeedSprint    SpeedMode = "sprint"     // 60 second drill
	SpeedRapidFire SpeedMode = "rapid-fire" // short burst drill
	SpeedFullTable SpeedMode = "full-table" // run through the whole table
)
