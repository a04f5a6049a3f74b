package aggregate

import "errors"

var (
	ErrNoUpdates           = errors.New("no updates provided for aggregation")
	ErrInvalidLearningRate = errors.New("invalid learning rate")
)
