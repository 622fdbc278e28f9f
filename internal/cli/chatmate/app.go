// Package chatmate implements the chatmate command: the web form server plus
// one-shot ask and schema commands against the same database.
package chatmate

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raunakjaimini/chatmate/internal/config"
)

type App struct {
	root     *cobra.Command
	stdout   io.Writer
	stderr   io.Writer
	lookup   config.LookupFunc
	dotEnv   []string
	execPath func() (string, error)
}

func New() *App {
	app := &App{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		lookup:   os.LookupEnv,
		dotEnv:   []string{".env"},
		execPath: os.Executable,
	}

	app.root = &cobra.Command{
		Use:   "chatmate",
		Short: "Conversational analytics over a read-only SQL database",
		Long: `chatmate answers natural-language questions about a local analytics
database by letting a hosted language model explore it read-only.

The API key is read from GROQ_API_KEY (or the variable named by
CHATMATE_LLM_API_KEY_ENV); a .env file in the working directory is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.AddCommand(
		app.newServeCmd(),
		app.newAskCmd(),
		app.newSchemaCmd(),
	)
	return app
}

func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithLookup replaces the environment and disables .env loading.
func (a *App) WithLookup(lookup config.LookupFunc) *App {
	a.lookup = lookup
	a.dotEnv = nil
	return a
}

func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}
