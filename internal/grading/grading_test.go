package grading

import (
	"testing"

	"github.com/bilimdonlar/maktabtest/internal/model"
)

func choice(id uint, correct bool) model.Choice {
	return model.Choice{ID: id, QuestionID: 1, ChoiceText: "choice", IsCorrect: correct}
}

func singleChoiceQuestion(id uint, points float64, correctChoiceID uint, choiceIDs ...uint) model.Question {
	q := model.Question{ID: id, QuestionType: model.QuestionSingleChoice, Points: points}
	for _, cid := range choiceIDs {
		q.Choices = append(q.Choices, choice(cid, cid == correctChoiceID))
	}
	return q
}

func answerWith(questionID uint, selected ...model.Choice) *model.Answer {
	return &model.Answer{AttemptID: 1, QuestionID: questionID, SelectedChoices: selected}
}

func TestJudgeSingleChoice(t *testing.T) {
	q := singleChoiceQuestion(1, 1, 10, 10, 11, 12)

	tests := []struct {
		name     string
		answer   *model.Answer
		expected Verdict
	}{
		{"correct singleton", answerWith(1, choice(10, true)), VerdictCorrect},
		{"wrong singleton", answerWith(1, choice(11, false)), VerdictIncorrect},
		{"multiple selections never correct", answerWith(1, choice(10, true), choice(11, false)), VerdictIncorrect},
		{"empty selection", answerWith(1), VerdictIncorrect},
		{"no answer row", nil, VerdictUnanswered},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Judge(q, tc.answer); got != tc.expected {
				t.Fatalf("Judge() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestJudgeMultipleChoiceExactMatch(t *testing.T) {
	// Correct set is {A=1, C=3}.
	q := model.Question{ID: 2, QuestionType: model.QuestionMultipleChoice, Points: 2}
	a, b, c := choice(1, true), choice(2, false), choice(3, true)
	q.Choices = []model.Choice{a, b, c}

	tests := []struct {
		name     string
		selected []model.Choice
		expected Verdict
	}{
		{"exact match", []model.Choice{a, c}, VerdictCorrect},
		{"order irrelevant", []model.Choice{c, a}, VerdictCorrect},
		{"missing one", []model.Choice{a, b}, VerdictIncorrect},
		{"superset", []model.Choice{a, c, b}, VerdictIncorrect},
		{"subset", []model.Choice{a}, VerdictIncorrect},
		{"empty", nil, VerdictIncorrect},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Judge(q, answerWith(2, tc.selected...)); got != tc.expected {
				t.Fatalf("Judge() = %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestJudgeMultipleChoiceNoCorrectChoices(t *testing.T) {
	q := model.Question{ID: 3, QuestionType: model.QuestionMultipleChoice, Points: 1}
	q.Choices = []model.Choice{choice(1, false), choice(2, false)}

	if got := Judge(q, answerWith(3)); got != VerdictIncorrect {
		t.Fatalf("empty selection against empty key should be incorrect, got %v", got)
	}
}

func TestJudgeTextAnswerAlwaysUngraded(t *testing.T) {
	q := model.Question{ID: 4, QuestionType: model.QuestionTextAnswer, Points: 3}
	ans := &model.Answer{QuestionID: 4, TextAnswer: "photosynthesis"}

	if got := Judge(q, ans); got != VerdictUngraded {
		t.Fatalf("text answers must stay ungraded, got %v", got)
	}
	if got := Judge(q, nil); got != VerdictUnanswered {
		t.Fatalf("missing text answer should be unanswered, got %v", got)
	}
}

func TestEvaluateScenarioOneAnsweredOneSkipped(t *testing.T) {
	// Two single-choice questions worth 1 point each; Q1 answered correctly,
	// Q2 left untouched.
	q1 := singleChoiceQuestion(1, 1, 10, 10, 11)
	q2 := singleChoiceQuestion(2, 1, 30, 30, 31)

	s := Evaluate([]model.Question{q1, q2}, []model.Answer{
		{QuestionID: 1, SelectedChoices: []model.Choice{choice(10, true)}},
	})

	if s.Score != 1 || s.TotalPoints != 2 || s.Percentage != 50 {
		t.Fatalf("score=%v total=%v pct=%v, want 1/2/50", s.Score, s.TotalPoints, s.Percentage)
	}
	if s.CorrectCount != 1 || s.IncorrectCount != 0 || s.UnansweredCount != 1 {
		t.Fatalf("counts correct=%d incorrect=%d unanswered=%d, want 1/0/1",
			s.CorrectCount, s.IncorrectCount, s.UnansweredCount)
	}
	if s.AllAnswered || s.AnsweredCount != 1 || s.TotalQuestions != 2 {
		t.Fatalf("answered=%d/%d allAnswered=%v", s.AnsweredCount, s.TotalQuestions, s.AllAnswered)
	}
	if BandFor(s.Percentage) != GradeSatisfactory {
		t.Fatalf("50%% should band as Satisfactory, got %s", BandFor(s.Percentage))
	}
	if len(s.IncorrectQuestions) != 1 {
		t.Fatalf("want 1 missed question, got %d", len(s.IncorrectQuestions))
	}
	miss := s.IncorrectQuestions[0]
	if miss.GivenAnswer != nil {
		t.Fatalf("skipped question should carry nil answer, got %q", *miss.GivenAnswer)
	}
	if miss.CorrectAnswer == nil {
		t.Fatal("missed question should expose the correct choice text")
	}
}

func TestEvaluateScenarioOneWrongOneCorrect(t *testing.T) {
	q1 := singleChoiceQuestion(1, 1, 10, 10, 11)
	q2 := singleChoiceQuestion(2, 1, 30, 30, 31)

	s := Evaluate([]model.Question{q1, q2}, []model.Answer{
		{QuestionID: 1, SelectedChoices: []model.Choice{choice(11, false)}},
		{QuestionID: 2, SelectedChoices: []model.Choice{choice(30, true)}},
	})

	if s.Score != 1 || s.Percentage != 50 {
		t.Fatalf("score=%v pct=%v, want 1/50", s.Score, s.Percentage)
	}
	if s.CorrectCount != 1 || s.IncorrectCount != 1 || s.UnansweredCount != 0 {
		t.Fatalf("counts correct=%d incorrect=%d unanswered=%d, want 1/1/0",
			s.CorrectCount, s.IncorrectCount, s.UnansweredCount)
	}
	if !s.AllAnswered {
		t.Fatal("both questions answered, AllAnswered should be true")
	}
}

func TestEvaluateEmptyTestNoDivisionFault(t *testing.T) {
	s := Evaluate(nil, nil)
	if s.Percentage != 0 || s.Score != 0 || s.TotalPoints != 0 {
		t.Fatalf("empty test must score zero everywhere, got %+v", s)
	}
	if !s.AllAnswered {
		t.Fatal("vacuously all answered")
	}
}

func TestEvaluateScoreBounds(t *testing.T) {
	q1 := singleChoiceQuestion(1, 2.5, 10, 10, 11)
	q2 := singleChoiceQuestion(2, 4, 20, 20, 21)

	s := Evaluate([]model.Question{q1, q2}, []model.Answer{
		{QuestionID: 1, SelectedChoices: []model.Choice{choice(10, true)}},
		{QuestionID: 2, SelectedChoices: []model.Choice{choice(20, true)}},
	})
	if s.Score < 0 || s.Score > s.TotalPoints {
		t.Fatalf("score %v outside [0, %v]", s.Score, s.TotalPoints)
	}
	if s.Percentage < 0 || s.Percentage > 100 {
		t.Fatalf("percentage %v outside [0, 100]", s.Percentage)
	}
	if s.Percentage != 100 {
		t.Fatalf("full marks should be 100%%, got %v", s.Percentage)
	}
}

func TestEvaluateIgnoresAnswersOutsideServedSet(t *testing.T) {
	q1 := singleChoiceQuestion(1, 1, 10, 10, 11)

	s := Evaluate([]model.Question{q1}, []model.Answer{
		{QuestionID: 1, SelectedChoices: []model.Choice{choice(10, true)}},
		{QuestionID: 99, SelectedChoices: []model.Choice{choice(77, true)}},
	})
	if s.TotalQuestions != 1 || s.AnsweredCount != 1 || s.Score != 1 {
		t.Fatalf("stray answer leaked into scoring: %+v", s)
	}
}

func TestBandForBoundaries(t *testing.T) {
	tests := []struct {
		percentage float64
		expected   string
	}{
		{100, GradeExcellent},
		{81, GradeExcellent},
		{80.999, GradeGood},
		{61, GradeGood},
		{60.999, GradeSatisfactory},
		{31, GradeSatisfactory},
		{30.999, GradeUnsatisfactory},
		{0, GradeUnsatisfactory},
	}
	for _, tc := range tests {
		if got := BandFor(tc.percentage); got != tc.expected {
			t.Errorf("BandFor(%v) = %s, want %s", tc.percentage, got, tc.expected)
		}
	}
}
