package port

// Generator produces an answer for a fully assembled prompt.
type Generator interface {
	// Generate returns the model output for prompt. An empty completion is
	// reported as an error rather than an empty answer.
	Generate(prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
