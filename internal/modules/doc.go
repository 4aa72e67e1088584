// Package modules holds the built-in analysis modules.
//
// Each module is a module.Spec. Modules subscribe to events during
// construction, read relations the linker placed on the sequence, may
// fabricate derived events (changestats, changehaste) and expose their
// final state through Snapshot.
//
//	abilityTracker   per-ability casts, hits and amounts
//	statTracker      haste rating, fabricates changestats
//	haste            haste percentage, fabricates changehaste
//	hasteTimeline    time-weighted haste over the fight
//	wildGrowth       hardcast Wild Growth effectiveness
//	leapingFlames    Leaping Flames and Essence Burst usage
package modules
