package ytstudio

// Logger receives diagnostic output: request traces, retry waits and advisory
// validation warnings. Advisory warnings never fail a call; they only show up here.
type Logger interface {
	Log(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Log(string, ...any) {}
