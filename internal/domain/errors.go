package domain

import "errors"

var (
	// ErrTopicNotFound indicates the topic content could not be loaded.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrCertificateExists is returned when a certificate was already issued
	// for the same user and topic.
	ErrCertificateExists = errors.New("certificate already issued")
	// ErrScoreBelowThreshold rejects certificate awards under the pass mark.
	ErrScoreBelowThreshold = errors.New("score below certificate threshold")
	// ErrWrongAnswerNotFound indicates no stored wrong answer matches the key.
	ErrWrongAnswerNotFound = errors.New("wrong answer record not found")
)
