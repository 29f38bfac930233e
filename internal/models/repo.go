package models

// Repo is one trending repository as produced by the acquirer.
// FullName is always "owner/name".
type Repo struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	Language      string `json:"language"`
	Stars         int    `json:"stars"`
	StarsGained   int    `json:"stars_gained"`
	ReadmeExcerpt string `json:"readme_excerpt,omitempty"`
}

// Summary is the structured reply expected from the LLM for one repo.
type Summary struct {
	OneLiner     string   `json:"one_liner"`
	CoreFeatures []string `json:"core_features"`
	UseCase      string   `json:"use_case"`
	Score        int      `json:"score"`
	ScoreReason  string   `json:"score_reason"`
}
