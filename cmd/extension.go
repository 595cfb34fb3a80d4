package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
)

// Environment passed to extensions. The names match the ones read by the
// config package so an extension loading the configuration sees the same
// settings as findeck.
const (
	EnvConfigFile     = "FINDECK_CONFIG"
	EnvStorageBackend = "FINDECK_STORAGE_BACKEND"
	EnvLogLevel       = "FINDECK_LOG_LEVEL"
	EnvVerbose        = "FINDECK_VERBOSE"
)

// IsCommand reports whether name is a built-in subcommand.
func IsCommand(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, cmds := range Commands {
		for _, c := range cmds {
			if c.Name() == name {
				return true
			}
		}
	}
	return false
}

// extensionEnv returns the environment of an extension: the current one
// plus the global flags.
func extensionEnv() []string {
	env := append(os.Environ(),
		EnvConfigFile+"="+*configFile,
		EnvVerbose+"="+strconv.FormatBool(*verbose),
	)
	if *storeBackend != "" {
		env = append(env, EnvStorageBackend+"="+*storeBackend)
	}
	if *verbose {
		env = append(env, EnvLogLevel+"=debug")
	}
	return env
}

// RunExtension attempts to find and execute an external findeck-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "findeck-" + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		if *verbose {
			log.Printf("External command %q not found in PATH: %v", name, err)
		}
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = extensionEnv()

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
