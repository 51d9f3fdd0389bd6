package repository

import "errors"

// ErrMarkerConflict is returned when a materialization batch loses the
// compare-and-swap on a rule's last_generated_date, meaning a concurrent
// worker already advanced the marker. Nothing is written in that case.
var ErrMarkerConflict = errors.New("last generated marker changed concurrently")
