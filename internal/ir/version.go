package ir

// Version constants recorded with every stored run.
const (
	// IRVersion is the event/snapshot schema version.
	IRVersion = "1"

	// EngineVersion is the combatlens engine version.
	EngineVersion = "0.3.0"
)
