// Package grading holds the pure scoring rules for test attempts. Every
// function here is total: no persistence, no panics, and guarded fallbacks
// for empty data, so callers can treat scoring as a plain computation over
// already-loaded models.
package grading

import (
	"github.com/bilimdonlar/maktabtest/internal/model"
)

// Verdict classifies a single question within an attempt.
type Verdict int

const (
	// VerdictUnanswered means no answer row exists for the question.
	VerdictUnanswered Verdict = iota
	// VerdictCorrect means the recorded selection matches the answer key.
	VerdictCorrect
	// VerdictIncorrect means a selection exists and does not match.
	VerdictIncorrect
	// VerdictUngraded marks text answers awaiting manual review. They earn
	// no points but are distinguishable from plain wrong answers.
	VerdictUngraded
)

// Grade band labels derived from percentage.
const (
	GradeExcellent      = "Excellent"
	GradeGood           = "Good"
	GradeSatisfactory   = "Satisfactory"
	GradeUnsatisfactory = "Unsatisfactory"
)

// completionBonus is a reserved extension point: a future rule may award
// extra points for answering every question. Currently always zero.
const completionBonus float64 = 0

// IncorrectQuestion describes one question the student got wrong, left
// ungraded, or skipped, for the per-question breakdown in results.
type IncorrectQuestion struct {
	QuestionID    uint    `json:"question_id"`
	QuestionText  string  `json:"question_text"`
	GivenAnswer   *string `json:"answer"`         // nil when unanswered
	CorrectAnswer *string `json:"correct_answer"` // nil when no choice is flagged correct
}

// Summary is the aggregate outcome of scoring one attempt.
type Summary struct {
	Score              float64             `json:"score"`
	TotalPoints        float64             `json:"total_points"`
	Percentage         float64             `json:"percentage"`
	AllAnswered        bool                `json:"all_answered"`
	AnsweredCount      int                 `json:"answered_count"`
	TotalQuestions     int                 `json:"total_questions"`
	CorrectCount       int                 `json:"correct_answers"`
	IncorrectCount     int                 `json:"incorrect_answers"`
	UngradedCount      int                 `json:"ungraded_answers"`
	UnansweredCount    int                 `json:"unanswered"`
	IncorrectQuestions []IncorrectQuestion `json:"incorrect_questions"`
}

// Judge returns the verdict for one question given its recorded answer.
// A nil answer means the student never responded.
func Judge(q model.Question, ans *model.Answer) Verdict {
	if ans == nil {
		return VerdictUnanswered
	}

	switch q.QuestionType {
	case model.QuestionTextAnswer:
		// Never auto-graded; manual review assigns credit later.
		return VerdictUngraded
	case model.QuestionSingleChoice:
		// Exact singleton rule: correct only when exactly one choice is
		// selected and that choice carries the correctness flag.
		if len(ans.SelectedChoices) != 1 {
			return VerdictIncorrect
		}
		if ans.SelectedChoices[0].IsCorrect {
			return VerdictCorrect
		}
		return VerdictIncorrect
	case model.QuestionMultipleChoice:
		correct := make(map[uint]struct{})
		for _, c := range q.Choices {
			if c.IsCorrect {
				correct[c.ID] = struct{}{}
			}
		}
		if len(ans.SelectedChoices) != len(correct) || len(correct) == 0 {
			return VerdictIncorrect
		}
		for _, c := range ans.SelectedChoices {
			if _, ok := correct[c.ID]; !ok {
				return VerdictIncorrect
			}
		}
		return VerdictCorrect
	default:
		return VerdictIncorrect
	}
}

// Evaluate scores an attempt: questions are the served set (the denominator),
// answers are whatever the student recorded. Answers referencing questions
// outside the served set are ignored.
func Evaluate(questions []model.Question, answers []model.Answer) Summary {
	byQuestion := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	s := Summary{
		TotalQuestions:     len(questions),
		IncorrectQuestions: []IncorrectQuestion{},
	}

	var earned float64
	for _, q := range questions {
		s.TotalPoints += q.Points

		ans := byQuestion[q.ID]
		if ans != nil {
			s.AnsweredCount++
		}

		switch Judge(q, ans) {
		case VerdictCorrect:
			s.CorrectCount++
			earned += q.Points
		case VerdictIncorrect:
			s.IncorrectCount++
			s.IncorrectQuestions = append(s.IncorrectQuestions, describeMiss(q, ans))
		case VerdictUngraded:
			s.UngradedCount++
			s.IncorrectQuestions = append(s.IncorrectQuestions, describeMiss(q, ans))
		case VerdictUnanswered:
			s.UnansweredCount++
			s.IncorrectQuestions = append(s.IncorrectQuestions, describeMiss(q, nil))
		}
	}

	s.AllAnswered = s.AnsweredCount == s.TotalQuestions
	s.Score = earned + completionBonus
	if s.TotalPoints > 0 {
		s.Percentage = s.Score / s.TotalPoints * 100
	}
	return s
}

// BandFor maps a percentage to its qualitative grade band. This is the single
// banding function; every consumer (finish, results views, listings) calls it.
func BandFor(percentage float64) string {
	switch {
	case percentage >= 81:
		return GradeExcellent
	case percentage >= 61:
		return GradeGood
	case percentage >= 31:
		return GradeSatisfactory
	default:
		return GradeUnsatisfactory
	}
}

func describeMiss(q model.Question, ans *model.Answer) IncorrectQuestion {
	miss := IncorrectQuestion{
		QuestionID:   q.ID,
		QuestionText: q.QuestionText,
	}

	if ans != nil {
		if len(ans.SelectedChoices) > 0 {
			given := ans.SelectedChoices[0].ChoiceText
			miss.GivenAnswer = &given
		} else if ans.TextAnswer != "" {
			given := ans.TextAnswer
			miss.GivenAnswer = &given
		}
	}

	if correct := q.CorrectChoice(); correct != nil {
		text := correct.ChoiceText
		miss.CorrectAnswer = &text
	}
	return miss
}
