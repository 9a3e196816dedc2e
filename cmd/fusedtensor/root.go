package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fusedtensor/fusedtensor/envconfig"
)

func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := "\nEnvironment Variables:\n"
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-28s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI builds the root command and wires every subcommand.
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false
	slog.SetLogLoggerLevel(envconfig.LogLevel())

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "fusedtensor",
		Short:         "Lazy, fusing tensor compute graph debug CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	graphCmd := newGraphCmd()
	resolveCmd := newResolveCmd()
	benchCmd := newBenchCmd()
	serveCmd := newServeCmd()

	envVars := envconfig.AsMap()
	appendEnvDocs(graphCmd, []envconfig.EnvVar{envVars["FUSEDTENSOR_DEBUG"]})
	appendEnvDocs(resolveCmd, []envconfig.EnvVar{
		envVars["FUSEDTENSOR_DEBUG"],
		envVars["FUSEDTENSOR_BACKEND"],
		envVars["FUSEDTENSOR_DISABLE_FUSION"],
		envVars["FUSEDTENSOR_TRACE_DISPATCH"],
	})
	appendEnvDocs(benchCmd, []envconfig.EnvVar{
		envVars["FUSEDTENSOR_DEBUG"],
		envVars["FUSEDTENSOR_DISPATCH_TIMEOUT"],
	})
	appendEnvDocs(serveCmd, []envconfig.EnvVar{
		envVars["FUSEDTENSOR_HOST"],
		envVars["FUSEDTENSOR_MAX_QUEUE"],
	})

	rootCmd.AddCommand(graphCmd, resolveCmd, benchCmd, serveCmd)
	return rootCmd
}
