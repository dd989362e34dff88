package hermes

const (
	SubjectWeightsUpdated   = "spk.weights.updated"
	SubjectVillagesImported = "spk.villages.imported"
	SubjectRankingComputed  = "spk.ranking.computed"

	// SubjectAll matches every event this service publishes.
	SubjectAll = "spk.>"

	StreamName   = "SPK_EVENTS"
	StreamMaxAge = "720h" // 30 days
)
