package usecase

import "errors"

// ErrHistoryUnavailable is returned when the configured backend cannot serve history reads.
var ErrHistoryUnavailable = errors.New("hand history queries require the clickhouse backend")
