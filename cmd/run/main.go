package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fumin/qburgers/config"
	"github.com/fumin/qburgers/logger"
)

const (
	envPrefix   = "QBURGERS"
	fnameConfig = ".qburgers.yaml"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
)

// app holds the state shared by the subcommands.
type app struct {
	v      *viper.Viper
	log    zerolog.Logger
	params config.Parameters
	prof   interface{ Stop() }
}

func (a *app) out() string { return a.v.GetString("out") }

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "run",
		Short:         "Quantum inspired solvers of the 1D viscous Burgers' equation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.prof != nil {
				a.prof.Stop()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "sweep parameters file (default $HOME/"+fnameConfig+")")
	pf.String("out", "results", "output directory")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.Bool("pretty", true, "human readable logs")
	pf.Bool("profile", false, "write a CPU profile to the output directory")
	for _, name := range []string{"config", "out", "log-level", "pretty", "profile"} {
		if err := a.v.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newCompareCmd(a),
		newSweepCmd(a),
		newCircuitCmd(a),
		newPlotCmd(a),
		newHamiltonianCmd(a),
	)
	return root
}

// setup reads the config file and sets up logging, profiling and the output directory.
func (a *app) setup(cmd *cobra.Command) error {
	a.params = config.Default()

	cfgPath := a.v.GetString("config")
	if cfgPath == "" {
		home, err := homedir.Dir()
		if err == nil {
			if p := filepath.Join(home, fnameConfig); fileExists(p) {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		params, err := config.ReadFile(cfgPath)
		if err != nil {
			return errors.Wrap(err, cfgPath)
		}
		a.params = params
		// The file's Output applies unless --out or QBURGERS_OUT says otherwise.
		if !cmd.Flags().Changed("out") && os.Getenv(envPrefix+"_OUT") == "" && params.Output != "" {
			a.v.Set("out", params.Output)
		}
	}

	a.log = logger.New(logger.Config{Level: a.v.GetString("log-level"), Pretty: a.v.GetBool("pretty")})
	logger.SetGlobalLogger(a.log)
	if cfgPath != "" {
		a.log.Debug().Str("config", cfgPath).Msg("")
	}

	if err := os.MkdirAll(a.out(), os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	if a.v.GetBool("profile") {
		a.prof = profile.Start(profile.CPUProfile, profile.ProfilePath(a.out()), profile.Quiet)
	}
	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func summary(title string, kvs ...string) string {
	lines := []string{titleStyle.Render(title)}
	for i := 0; i+1 < len(kvs); i += 2 {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(kvs[i]), valueStyle.Render(kvs[i+1])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func main() {
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
