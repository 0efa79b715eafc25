package carbon

import "github.com/rs/zerolog"

// logger receives data-parsing diagnostics. Disabled until SetLogger is called.
var logger = zerolog.Nop()

// SetLogger injects the logger used for reference-table parsing warnings and
// architecture fallback notices.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "carbon").Logger()
}
