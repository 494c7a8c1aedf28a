package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/onsi/gomega/gexec"
)

type Runner struct {
	VeneerBin string

	RootfsPath string
	ConfigPath string
	Digest     string

	LogLevelSet bool
	LogLevel    lager.LogLevel
	LogFile     string
	MetronHost  net.IP
	MetronPort  uint16

	Env []string

	Stdout io.Writer
	Stderr io.Writer

	Timeout time.Duration
}

func (r Runner) RunSubcommand(subcommand string, args ...string) (string, error) {
	stdoutBuffer := bytes.NewBuffer([]byte{})
	var stdout io.Writer
	if r.Stdout != nil {
		stdout = io.MultiWriter(r.Stdout, stdoutBuffer)
	} else {
		stdout = stdoutBuffer
	}
	r = r.WithStdout(stdout)

	cmd := r.makeCmd(subcommand, args)

	runErr := r.runCmd(cmd)
	if runErr != nil {
		errStr := fmt.Sprintf("command exited with %s", runErr)
		stdoutContents := strings.TrimSpace(stdoutBuffer.String())
		if stdoutContents != "" {
			errStr = stdoutContents
		}

		return "", errors.New(errStr)
	}

	return strings.TrimSpace(stdoutBuffer.String()), nil
}

func (r Runner) StartSubcommand(subcommand string, args ...string) (*gexec.Session, error) {
	cmd := r.makeCmd(subcommand, args)
	return gexec.Start(cmd, r.Stdout, r.Stderr)
}

func (r Runner) runCmd(cmd *exec.Cmd) error {
	if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	if r.Timeout == 0 {
		return cmd.Run()
	}

	errChan := make(chan error)
	go func() {
		errChan <- cmd.Run()
		close(errChan)
	}()

	select {
	case runErr := <-errChan:
		return runErr

	case <-time.After(r.Timeout):
		return fmt.Errorf("command took more than %f seconds to finish", r.Timeout.Seconds())
	}
}

func (r Runner) makeCmd(subcommand string, args []string) *exec.Cmd {
	allArgs := []string{}
	if r.LogLevelSet {
		allArgs = append(allArgs, "--log-level", r.logLevel(r.LogLevel))
	}
	if r.LogFile != "" {
		allArgs = append(allArgs, "--log-file", r.LogFile)
	}
	if r.MetronHost != nil && r.MetronPort != 0 {
		metronEndpoint := fmt.Sprintf("%s:%d", r.MetronHost.String(), r.MetronPort)
		allArgs = append(allArgs, "--metron-endpoint", metronEndpoint)
	}
	if r.ConfigPath != "" {
		allArgs = append(allArgs, "--config", r.ConfigPath)
	}

	allArgs = append(allArgs, subcommand)
	allArgs = append(allArgs, args...)

	cmd := exec.Command(r.VeneerBin, allArgs...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	return cmd
}

func (r Runner) logLevel(ll lager.LogLevel) string {
	switch ll {
	case lager.DEBUG:
		return "debug"
	case lager.INFO:
		return "info"
	case lager.FATAL:
		return "fatal"
	default:
		return "error"
	}
}
