package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/logging"
)

// setupLogging builds the root logger from the config file, environment,
// and --debug, then stores it with a fresh trace ID in the command context.
func (s *session) setupLogging(cmd *cobra.Command) {
	loggingCfg := s.config().Logging.ToLoggingConfig()
	if s.flags.debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.Output = logging.OutputStderr
		loggingCfg.File = ""
		loggingCfg.Caller = true
	}

	result := logging.NewLoggerWithPath(loggingCfg)
	s.logResult = &result
	logger := logging.ComponentLogger(result.Logger, "cli")

	if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	logger = logger.With().Str("trace_id", traceID).Logger()
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Info().
		Ctx(ctx).
		Str("command", cmd.CommandPath()).
		Str("config", s.config().Path).
		Msg("command started")
}
