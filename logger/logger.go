package logger

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/att/cassandra-mfa-go/driverctx"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// enable pretty printing for interactive terminals and json for production.
func init() {
	// for tty terminal enable pretty logs
	if isatty.IsTerminal(os.Stdout.Fd()) && runtime.GOOS != "windows" {
		Log = Log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		// UNIX Time is faster and smaller than most timestamps
		// If you set zerolog.TimeFieldFormat to an empty string,
		// logs will write with UNIX time.
		zerolog.TimeFieldFormat = ""
	}
	// by default only log warnings and errors
	SetLogLevel(zerolog.WarnLevel)
}

func SetLogLevel(l zerolog.Level) {
	Log = Log.Level(l)
}

func SetLogOutput(w io.Writer) {
	Log = Log.Output(w)
}

// WithContext returns a logger carrying the correlation and connection ids
// stored in ctx, so every handshake of a connection can be traced.
func WithContext(ctx context.Context) zerolog.Logger {
	lc := Log.With()
	if corrId := driverctx.CorrelationIdFromContext(ctx); corrId != "" {
		lc = lc.Str("corrId", corrId)
	}
	if connId := driverctx.ConnIdFromContext(ctx); connId != "" {
		lc = lc.Str("connId", connId)
	}
	return lc.Logger()
}
