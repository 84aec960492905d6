package llm

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Question is the structured next-turn output of the interviewer model.
type Question struct {
	Type       string          `json:"type"`
	Question   string          `json:"question"`
	QuestionNo int             `json:"question_no"`
	Evaluation *TurnEvaluation `json:"evaluation,omitempty"`
}

// TurnEvaluation scores the candidate's previous answer, produced alongside
// a synchronous chat question.
type TurnEvaluation struct {
	Communication      float64 `json:"communication"`
	TechnicalKnowledge float64 `json:"technical_knowledge"`
	Clarity            float64 `json:"clarity"`
	Suggestion         string  `json:"suggestion"`
}

// Evaluation is the aggregate end-of-interview assessment.
type Evaluation struct {
	CommunicationScore float64  `json:"communication_score"`
	TechnicalScore     float64  `json:"technical_score"`
	ClarityScore       float64  `json:"clarity_score"`
	Suggestions        []string `json:"suggestions"`
}

// Overall derives the overall score as the mean of the three sub-scores.
func (e Evaluation) Overall() float64 {
	return (e.CommunicationScore + e.TechnicalScore + e.ClarityScore) / 3
}

const questionSchema = `{
	"type": "object",
	"required": ["type", "question", "question_no"],
	"properties": {
		"type": {
			"type": "string",
			"enum": ["theory", "coding", "scenario", "follow_up", "clarification"]
		},
		"question": {"type": "string", "minLength": 1},
		"question_no": {"type": "integer", "minimum": 1},
		"evaluation": {
			"type": "object",
			"required": ["communication", "technical_knowledge", "clarity", "suggestion"],
			"properties": {
				"communication": {"type": "number", "minimum": 0, "maximum": 10},
				"technical_knowledge": {"type": "number", "minimum": 0, "maximum": 10},
				"clarity": {"type": "number", "minimum": 0, "maximum": 10},
				"suggestion": {"type": "string"}
			}
		}
	}
}`

const evaluationSchema = `{
	"type": "object",
	"required": ["communication_score", "technical_score", "clarity_score", "suggestions"],
	"properties": {
		"communication_score": {"type": "number"},
		"technical_score": {"type": "number"},
		"clarity_score": {"type": "number"},
		"suggestions": {
			"type": "array",
			"items": {"type": "string"},
			"minItems": 1
		}
	}
}`

var (
	questionSchemaLoader   = gojsonschema.NewStringLoader(questionSchema)
	evaluationSchemaLoader = gojsonschema.NewStringLoader(evaluationSchema)
)

// FallbackQuestion keeps the interview moving when the model's output is
// malformed: a fixed theory question rather than a propagated fault.
var FallbackQuestion = Question{
	Type:       "theory",
	Question:   "Let's continue. Can you explain a key concept relevant to this role?",
	QuestionNo: 1,
}

// FallbackEvaluation is substituted when the aggregate evaluation output is
// malformed, so finalization never stalls on a parsing fault.
var FallbackEvaluation = Evaluation{
	Suggestions: []string{"Evaluation could not be generated for this interview."},
}

func validateAgainst(loader gojsonschema.JSONLoader, raw string) error {
	result, err := gojsonschema.Validate(loader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("response violates schema: %v", result.Errors())
	}
	return nil
}

// ParseQuestion validates and decodes the interviewer model's raw response.
// Any failure (non-JSON, schema violation) yields FallbackQuestion.
func ParseQuestion(raw string) Question {
	cleaned := CleanJSONBlock(raw)
	if err := validateAgainst(questionSchemaLoader, cleaned); err != nil {
		return FallbackQuestion
	}

	var q Question
	if err := json.Unmarshal([]byte(cleaned), &q); err != nil {
		return FallbackQuestion
	}
	if q.Evaluation != nil {
		q.Evaluation.Communication = clampScore(q.Evaluation.Communication)
		q.Evaluation.TechnicalKnowledge = clampScore(q.Evaluation.TechnicalKnowledge)
		q.Evaluation.Clarity = clampScore(q.Evaluation.Clarity)
	}
	return q
}

// ParseEvaluation validates and decodes the aggregate evaluation response,
// clamping scores into [0, 10]. Malformed responses yield FallbackEvaluation.
func ParseEvaluation(raw string) Evaluation {
	cleaned := CleanJSONBlock(raw)
	if err := validateAgainst(evaluationSchemaLoader, cleaned); err != nil {
		return FallbackEvaluation
	}

	var e Evaluation
	if err := json.Unmarshal([]byte(cleaned), &e); err != nil {
		return FallbackEvaluation
	}

	e.CommunicationScore = clampScore(e.CommunicationScore)
	e.TechnicalScore = clampScore(e.TechnicalScore)
	e.ClarityScore = clampScore(e.ClarityScore)
	return e
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
