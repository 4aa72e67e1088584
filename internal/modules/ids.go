package modules

// Ability ids referenced by the built-in modules and link specs.
const (
	SpellWildGrowth   int64 = 48438
	SpellRejuvenation int64 = 774
	SpellRegrowth     int64 = 8936

	SpellLivingFlameCast          int64 = 361469
	SpellLivingFlameDamage        int64 = 361500
	SpellLivingFlameHeal          int64 = 361509
	SpellLeapingFlamesTalent      int64 = 369939
	SpellLeapingFlamesBuff        int64 = 370901
	SpellEssenceBurst             int64 = 359618
	SpellEssenceBurstPreservation int64 = 369299
	SpellAzureStrike              int64 = 362969

	SpellBloodlust     int64 = 2825
	SpellHeroism       int64 = 32182
	SpellPowerInfusion int64 = 10060
	SpellBerserking    int64 = 26297
	SpellStarlord      int64 = 279709
	SpellWellFed       int64 = 396092
)

// Relation names placed by the built-in link specs.
const (
	RelAppliedHot                = "appliedHot"
	RelFromHardcast              = "fromHardcast"
	RelLeapingFlamesHits         = "leapingFlamesHits"
	RelLeapingFlamesConsume      = "leapingFlamesConsume"
	RelEssenceBurstGenerated     = "essenceBurstGenerated"
	RelEssenceBurstCastGenerated = "essenceBurstCastGenerated"
)

// Module names.
const (
	NameAbilityTracker = "abilityTracker"
	NameStatTracker    = "statTracker"
	NameHaste          = "haste"
	NameHasteTimeline  = "hasteTimeline"
	NameWildGrowth     = "wildGrowth"
	NameLeapingFlames  = "leapingFlames"
)
