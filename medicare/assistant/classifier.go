package assistant

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Classification is the outcome of the local input gate.
type Classification int

const (
	Empty Classification = iota
	InDomain
	OutOfDomain
)

// defaultVocabulary is the curated list of symptom and illness terms.
// Matching is substring-based, so short stems like "sneez" cover
// sneeze/sneezing.
var defaultVocabulary = []string{
	"fever", "cough", "cold", "flu", "headache", "migraine", "pain",
	"ache", "sore throat", "rash", "itch", "nausea", "vomit", "diarrhea",
	"fatigue", "tired", "dizzy", "chills", "swelling", "swollen",
	"infection", "allergy", "allergic", "asthma", "breath", "chest",
	"stomach", "cramp", "blood pressure", "diabetes", "injury", "burn",
	"wound", "sneez", "runny nose", "congestion", "cancer", "tumor",
	"anxiety", "depression", "insomnia", "skin", "bruise", "fracture",
	"sprain", "bleeding", "numb", "throat", "ear", "eye", "back pain",
	"joint", "muscle", "weak", "appetite", "weight loss", "sick",
}

// InputClassifier is a cheap local gate that keeps clearly unrelated
// input from spending an external API call. Substring matching is
// deliberately coarse and may over- or under-match; it is not content
// moderation.
type InputClassifier struct {
	terms []string
}

func NewInputClassifier() *InputClassifier {
	return &InputClassifier{terms: defaultVocabulary}
}

// NewInputClassifierFromFile loads the vocabulary from a YAML file
// containing a plain list of terms. An empty list falls back to the
// built-in vocabulary.
func NewInputClassifierFromFile(path string) (*InputClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var terms []string
	if err := yaml.Unmarshal(data, &terms); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return NewInputClassifier(), nil
	}
	for i := range terms {
		terms[i] = strings.ToLower(strings.TrimSpace(terms[i]))
	}
	return &InputClassifier{terms: terms}, nil
}

// Classify trims the input, then scans for any vocabulary term
// case-insensitively. Whitespace-only input is Empty.
func (c *InputClassifier) Classify(text string) Classification {
	text = strings.TrimSpace(text)
	if text == "" {
		return Empty
	}
	lower := strings.ToLower(text)
	for _, term := range c.terms {
		if strings.Contains(lower, term) {
			return InDomain
		}
	}
	return OutOfDomain
}
