package domain

// KeyPrefix namespaces every key the service writes to Valkey/Redis.
const KeyPrefix = "matchdex:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the default configuration tuned for Qwen3-Embedding-8B.
// Profiles and search phrases get different instructions so one model serves both sides.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:               "Qwen3-Embedding-8B",
		Dimensions:          1024,
		DocumentInstruction: "Represent this profile for matching people with shared interests: ",
		QueryInstruction:    "Represent these interest tags for retrieving matching profiles: ",
	}
}
