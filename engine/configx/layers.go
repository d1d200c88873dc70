package configx

// Configuration layer precedence: a crawl of many sites shares a Global
// baseline, narrowed by Environment (staging vs production credentials/
// rate caps), Domain (a tenant's site group), Site (one troublesome host's
// overrides — see SiteCrawlerRule), and finally Ephemeral (a one-off
// operator override for the current run, never persisted).
const (
	LayerGlobal = iota
	LayerEnvironment
	LayerDomain
	LayerSite
	LayerEphemeral
)

var layerNames = map[int]string{
	LayerGlobal:      "global",
	LayerEnvironment: "environment",
	LayerDomain:      "domain",
	LayerSite:        "site",
	LayerEphemeral:   "ephemeral",
}

// LayerName returns the human-readable name for a layer constant.
func LayerName(layer int) string {
	if name, ok := layerNames[layer]; ok {
		return name
	}
	return "unknown"
}

// LayerPrecedenceOrder returns the merge order from lowest to highest priority.
func LayerPrecedenceOrder() []int {
	return []int{LayerGlobal, LayerEnvironment, LayerDomain, LayerSite, LayerEphemeral}
}
