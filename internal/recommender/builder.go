// internal/recommender/builder.go
package recommender

// ProfileBuilder accumulates the partial forms posted by each step of the quiz wizard.
// Later steps overwrite earlier values for the same key. A builder belongs to one
// student session and is not safe for concurrent use.
type ProfileBuilder struct {
	form  map[string]interface{}
	steps int
}

func NewProfileBuilder() *ProfileBuilder {
	return &ProfileBuilder{form: make(map[string]interface{})}
}

// Step merges one wizard step into the accumulated form.
func (b *ProfileBuilder) Step(partial map[string]interface{}) *ProfileBuilder {
	for k, v := range partial {
		b.form[k] = v
	}
	b.steps++
	return b
}

// Steps returns how many steps have been merged.
func (b *ProfileBuilder) Steps() int {
	return b.steps
}

// Form returns a copy of the accumulated raw form, suitable for persisting as answers.
func (b *ProfileBuilder) Form() map[string]interface{} {
	out := make(map[string]interface{}, len(b.form))
	for k, v := range b.form {
		out[k] = v
	}
	return out
}

// Build returns the immutable profile for everything merged so far.
func (b *ProfileBuilder) Build() StudentProfile {
	return ParseForm(b.form)
}
