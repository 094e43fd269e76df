// Package grading implements the pure scoring function for quiz attempts.
// Grading performs no I/O and has no side effects: the same quiz and answer
// set always produce the identical result.
package grading

import "quiz-platform-service/internal/domain"

// Grade compares submitted answers against the quiz's answer key.
//
// Rules:
//   - a question with no submitted answer counts as incorrect;
//   - an answer keyed by a question not in the quiz is ignored;
//   - an option key not among the question's present slots counts as incorrect;
//   - comparison is a case-sensitive exact match on the option key.
//
// PerQuestion follows the quiz's question order.
func Grade(quiz domain.Quiz, answers map[string]string) domain.GradeResult {
	result := domain.GradeResult{
		Total:       len(quiz.Questions),
		PerQuestion: make([]domain.QuestionResult, 0, len(quiz.Questions)),
	}

	for _, question := range quiz.Questions {
		selected, answered := answers[question.ID]
		correct := answered && isCorrect(question, selected)
		if correct {
			result.Score++
		}
		qr := domain.QuestionResult{
			QuestionID: question.ID,
			Correct:    correct,
		}
		if answered {
			qr.Selected = selected
		}
		result.PerQuestion = append(result.PerQuestion, qr)
	}
	return result
}

// isCorrect requires the selected key to be an offered slot; a key outside
// the present slots never matches, even if it equals the stored answer key
// of a slot the question does not offer.
func isCorrect(question domain.Question, selected string) bool {
	if _, present := question.Option(selected); !present {
		return false
	}
	return selected == question.CorrectOption
}
