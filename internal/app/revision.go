package app

import (
	"context"
	"time"

	"eduquest-service/internal/domain"
)

// RevisionService surfaces previously missed questions for a mastery check.
// It is independent of any live quiz session.
type RevisionService struct {
	wrong WrongAnswerStore
	now   func() time.Time
}

func NewRevisionService(wrong WrongAnswerStore, clock func() time.Time) *RevisionService {
	if clock == nil {
		clock = time.Now
	}
	return &RevisionService{wrong: wrong, now: clock}
}

// NextSpecialQuestion picks the oldest wrong answer whose calendar date is
// strictly before today. Same-day misses are never surfaced: the user should
// sleep on them first.
func (r *RevisionService) NextSpecialQuestion(ctx context.Context, userID string) (domain.WrongAnswerRecord, bool, error) {
	records, err := r.wrong.List(ctx, userID)
	if err != nil {
		return domain.WrongAnswerRecord{}, false, err
	}

	today := startOfDay(r.now())
	var oldest domain.WrongAnswerRecord
	found := false
	for _, rec := range records {
		if !rec.AnsweredOn.Before(today) {
			continue
		}
		if !found || rec.AnsweredOn.Before(oldest.AnsweredOn) {
			oldest = rec
			found = true
		}
	}
	return oldest, found, nil
}

// AnswerSpecialQuestion grades an out-of-band revision answer against the
// stored snapshot. Correct removes the record (mastery); incorrect leaves it
// in place untouched.
func (r *RevisionService) AnswerSpecialQuestion(ctx context.Context, userID string, questionID int, topicID string, optionIndex int) (bool, error) {
	records, err := r.wrong.List(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.QuestionID != questionID || rec.TopicID != topicID {
			continue
		}
		if optionIndex != rec.Question.CorrectOptionIndex {
			return false, nil
		}
		if err := r.wrong.Remove(ctx, userID, questionID, topicID); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, domain.ErrWrongAnswerNotFound
}
