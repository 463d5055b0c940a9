package attempt

import (
	"fmt"

	courseModels "lms/models/course"
)

// GradeResult is the outcome of grading one attempt.
type GradeResult struct {
	Score    int
	IsPassed bool
}

// GradingEngine scores submitted attempts of auto-graded quizzes.
type GradingEngine struct {
	// RequireTextReview refuses to finalize while any answer lacks both an
	// automatic correctness and a reviewed score.
	RequireTextReview bool
}

func NewGradingEngine(requireTextReview bool) *GradingEngine {
	return &GradingEngine{RequireTextReview: requireTextReview}
}

// AutoGrade sums question points for correct mcq/true_false answers and
// reviewed scores for everything else.
func (g *GradingEngine) AutoGrade(
	quiz courseModels.Quiz,
	questions []courseModels.Question,
	answers []courseModels.Answer,
) (GradeResult, error) {
	byID := make(map[uint]courseModels.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	score := 0
	pending := 0
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}

		if a.QuestionScore != nil {
			score += clampScore(*a.QuestionScore, q.Point)
			continue
		}

		switch q.Type {
		case courseModels.QuestionMCQ, courseModels.QuestionTrueFalse:
			if a.IsCorrect == nil {
				pending++
			} else if *a.IsCorrect {
				score += q.Point
			}
		default:
			pending++
		}
	}

	if pending > 0 && g.RequireTextReview {
		return GradeResult{}, fmt.Errorf("%w: %d answer(s) need a reviewed score", ErrManualReviewRequired, pending)
	}

	return GradeResult{Score: score, IsPassed: IsPassing(quiz, score)}, nil
}

// IsPassing reports whether score meets the quiz passing score.
func IsPassing(quiz courseModels.Quiz, score int) bool {
	return score >= quiz.PassingScore
}

func clampScore(score, point int) int {
	if score < 0 {
		return 0
	}
	if score > point {
		return point
	}
	return score
}
