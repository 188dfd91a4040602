package log

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

func init() {
	zerolog.ErrorStackMarshaler = extractStacktrace
}

// extractStacktrace renders the stack recorded by cockroachdb/errors.
// zerolog calls it for events built with Stack().
func extractStacktrace(err error) interface{} {
	if err == nil {
		return nil
	}
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return nil
}

// WarningSink returns a function suitable for errors.SetZerologWarnFunc.
// Warnings that implement zerolog.LogObjectMarshaler contribute their
// structured fields to the record.
func WarningSink(zl zerolog.Logger) func(error) {
	return func(w error) {
		e := zl.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			e = e.EmbedObject(m)
		}
		e.Msg(w.Error())
	}
}
