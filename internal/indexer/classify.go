package indexer

import (
	"errors"
	"net/http"

	"go.uber.org/zap/zapcore"

	"github.com/adam-vessey/Alpaca/internal/models"
)

// Disposition is what the router does with a message after one
// outcome: acknowledge, skip (acknowledge without forwarding), retry
// the dispatch, or fail terminally without redelivery.
type Disposition int

const (
	Success Disposition = iota
	Skip
	Retry
	Fatal
)

func (d Disposition) String() string {
	switch d {
	case Success:
		return "success"
	case Skip:
		return "skip"
	case Retry:
		return "retry"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps one outcome to a disposition and the level it should
// be logged at. The 410 and 404 rules key on the route's HTTP method
// so the same table applies uniformly to every category:
//
//	2xx                               -> success
//	412                               -> skip, info (downstream is newer)
//	410 on an update path             -> skip, warn (already deleted upstream)
//	404 on a delete path              -> skip, info (nothing to delete)
//	parse failure                     -> fatal, error (redelivery cannot fix it)
//	missing required field            -> fatal, error
//	missing optional field            -> skip, warn (e.g. media pre-upload)
//	anything else (network, 5xx, ...) -> retry, error
func Classify(err error, method string) (Disposition, zapcore.Level) {
	if err == nil {
		return Success, zapcore.DebugLevel
	}

	var parseErr *models.ParseError
	if errors.As(err, &parseErr) {
		return Fatal, zapcore.ErrorLevel
	}

	var missing *models.MissingFieldError
	if errors.As(err, &missing) {
		if missing.Optional {
			return Skip, zapcore.WarnLevel
		}
		return Fatal, zapcore.ErrorLevel
	}

	var status *StatusError
	if errors.As(err, &status) {
		switch {
		case status.Code == http.StatusPreconditionFailed:
			return Skip, zapcore.InfoLevel
		case status.Code == http.StatusGone && method != http.MethodDelete:
			return Skip, zapcore.WarnLevel
		case status.Code == http.StatusNotFound && method == http.MethodDelete:
			return Skip, zapcore.InfoLevel
		}
	}

	return Retry, zapcore.ErrorLevel
}
