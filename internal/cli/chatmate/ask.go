package chatmate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raunakjaimini/chatmate/internal/agent"
	"github.com/raunakjaimini/chatmate/internal/chat"
	"github.com/raunakjaimini/chatmate/internal/config"
)

type askOptions struct {
	jsonOutput bool
	quiet      bool
}

func (a *App) newAskCmd() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer one question and exit",
		Long: `Answer one question from the command line. Model output is streamed to
stderr while the agent works; the result goes to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ask(cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the outcome as JSON")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not stream model output")
	return cmd
}

func (a *App) ask(cmd *cobra.Command, question string, opts *askOptions) error {
	cfg, logger, err := a.loadConfig()
	if err != nil {
		return err
	}
	credential, err := config.RequireCredential(a.lookup, cfg.LLM.APIKeyEnv)
	if err != nil {
		return errors.New(config.MissingCredentialMessage)
	}

	cache := newDatabaseCache(cfg, logger)
	defer func() { _ = cache.Close() }()

	var stream io.Writer
	if cfg.LLM.Streaming && !opts.quiet {
		stream = a.stderr
	}
	questionAgent, err := agent.New(cfg, credential, cache, logger, stream)
	if err != nil {
		return err
	}
	outcome := chat.NewService(questionAgent, logger).Submit(cmd.Context(), question)
	if stream != nil && outcome.State == chat.StateSettled {
		_, _ = fmt.Fprintln(a.stderr)
	}

	if opts.jsonOutput {
		encoder := json.NewEncoder(a.stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(outcome); err != nil {
			return err
		}
	} else {
		writeOutcome(a.stdout, outcome)
	}

	switch {
	case outcome.Warning != "":
		return errors.New(outcome.Warning)
	case outcome.Error != "":
		return errors.New(outcome.Error)
	default:
		return nil
	}
}

func writeOutcome(w io.Writer, outcome chat.Outcome) {
	if outcome.State != chat.StateSettled || outcome.Error != "" {
		return
	}
	_, _ = fmt.Fprintln(w, "Result:")
	_, _ = fmt.Fprintf(w, "Raw Response: %s\n", outcome.Answer)
	if outcome.HasSQL() {
		_, _ = fmt.Fprintln(w, "Generated SQL Query:")
		_, _ = fmt.Fprintln(w, outcome.SQL)
	}
}
