package config

// Env is the part of the process environment the actions command reads,
// captured once at startup and passed down explicitly
type Env struct {
	Actions    bool   // GITHUB_ACTIONS=true
	EventName  string // GITHUB_EVENT_NAME
	EventPath  string // GITHUB_EVENT_PATH
	Repository string // GITHUB_REPOSITORY
	OutputPath string // GITHUB_OUTPUT
}

// LoadEnv captures the GitHub Actions variables through getenv, usually os.Getenv
func LoadEnv(getenv func(string) string) Env {
	return Env{
		Actions:    getenv("GITHUB_ACTIONS") == "true",
		EventName:  getenv("GITHUB_EVENT_NAME"),
		EventPath:  getenv("GITHUB_EVENT_PATH"),
		Repository: getenv("GITHUB_REPOSITORY"),
		OutputPath: getenv("GITHUB_OUTPUT"),
	}
}

// IsPullRequestEvent reports whether the workflow was triggered by a pull request
func (e Env) IsPullRequestEvent() bool {
	return e.EventName == "pull_request" || e.EventName == "pull_request_target"
}
