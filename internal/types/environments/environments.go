package environments

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Staging     Environment = "staging"
	Test        Environment = "test"
)

// Parse maps an APP_ENV value to an Environment, falling back to Development.
func Parse(value string) Environment {
	switch Environment(value) {
	case Production, Staging, Test:
		return Environment(value)
	default:
		return Development
	}
}
