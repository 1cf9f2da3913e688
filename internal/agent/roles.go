package agent

import (
	"fmt"

	"github.com/ahrav/go-groundqa/internal/domain"
)

// DefaultAnswerLanguage is the language every role is asked to respond in.
const DefaultAnswerLanguage = "Traditional Chinese"

// Role names used in logs and error wrapping.
const (
	RoleQuestionExtraction = "question_extraction"
	RoleKeywordExtraction  = "keyword_extraction"
	RoleGroundedQA         = "grounded_qa"
)

// QuestionExtraction returns the role that distills the core question out of
// a possibly noisy narrative.
func QuestionExtraction(language string) domain.AgentConfig {
	return domain.AgentConfig{
		Name:            RoleQuestionExtraction,
		RoleDescription: "You are a language processing expert specializing in extracting core questions from narratives.",
		TaskDescription: fmt.Sprintf("Find out the real question intended, preserve the full meaning, "+
			"remove unrelated content, and only tell me the core question in %s.", languageOrDefault(language)),
	}
}

// KeywordExtraction returns the role that lists two to five keywords.
func KeywordExtraction(language string) domain.AgentConfig {
	return domain.AgentConfig{
		Name:            RoleKeywordExtraction,
		RoleDescription: "You are a keyword extraction expert good at extracting keywords that help understand intent.",
		TaskDescription: fmt.Sprintf("Extract 2-5 keywords, and only tell me the keywords in %s.", languageOrDefault(language)),
	}
}

// GroundedQA returns the role that answers from supplied background text.
func GroundedQA(language string) domain.AgentConfig {
	return domain.AgentConfig{
		Name:            RoleGroundedQA,
		RoleDescription: "You are a knowledge-based QA system skilled in logical reasoning using background information.",
		TaskDescription: fmt.Sprintf("Based on the provided context, answer the question specifically and logically in %s.",
			languageOrDefault(language)),
	}
}

func languageOrDefault(language string) string {
	if language == "" {
		return DefaultAnswerLanguage
	}
	return language
}

// Set groups the three agents a pipeline run needs.
type Set struct {
	QuestionExtractor *Agent
	KeywordExtractor  *Agent
	Answerer          *Agent
}

// NewSet builds the three predefined roles over one shared backend.
func NewSet(backend Completer, language string) (*Set, error) {
	qe, err := New(QuestionExtraction(language), backend)
	if err != nil {
		return nil, err
	}
	kw, err := New(KeywordExtraction(language), backend)
	if err != nil {
		return nil, err
	}
	qa, err := New(GroundedQA(language), backend)
	if err != nil {
		return nil, err
	}
	return &Set{QuestionExtractor: qe, KeywordExtractor: kw, Answerer: qa}, nil
}
