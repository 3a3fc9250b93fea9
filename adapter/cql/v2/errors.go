package v2

import (
	"errors"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/arloliu/strand"
	"github.com/arloliu/strand/types"
)

var _ strand.ErrorClassifier = ClassifyError

// ClassifyError maps gocql request errors to failure signals.
//
// Use it with strand.WithErrorClassifier. Errors it does not recognize return
// false and are treated as fatal transport errors by the executor.
//
// Parameters:
//   - err: The error returned by a dispatch
//
// Returns:
//   - types.FailureSignal: The signal
//   - bool: true if err was recognized
func ClassifyError(err error) (types.FailureSignal, bool) {
	var (
		unavailable  *gocql.RequestErrUnavailable
		readTimeout  *gocql.RequestErrReadTimeout
		writeTimeout *gocql.RequestErrWriteTimeout
	)

	switch {
	case errors.As(err, &unavailable):
		return &types.UnavailableError{
			Consistency: FromGocqlConsistency(unavailable.Consistency),
			Required:    unavailable.Required,
			Alive:       unavailable.Alive,
		}, true

	case errors.As(err, &readTimeout):
		return &types.ReadTimeoutError{
			Consistency: FromGocqlConsistency(readTimeout.Consistency),
			Required:    readTimeout.BlockFor,
			Received:    readTimeout.Received,
			DataPresent: dataPresent(readTimeout.DataPresent),
		}, true

	case errors.As(err, &writeTimeout):
		return &types.WriteTimeoutError{
			Consistency: FromGocqlConsistency(writeTimeout.Consistency),
			WriteType:   types.ParseWriteType(writeTimeout.WriteType),
			Required:    writeTimeout.BlockFor,
			Received:    writeTimeout.Received,
		}, true
	}

	return nil, false
}

// dataPresent accepts both encodings of the data_present flag: a byte in early
// v2 releases, a bool later.
func dataPresent(v any) bool {
	switch flag := v.(type) {
	case bool:
		return flag
	case byte:
		return flag != 0
	}

	return false
}
