package runner

import (
	"io"
	"net"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/veneer/commands/config"
)

///////////////////////////////////////////////////////////////////////////////
// Rootfs path
///////////////////////////////////////////////////////////////////////////////

func (r Runner) WithRootfs(path string) Runner {
	nr := r
	nr.RootfsPath = path
	return nr
}

func (r Runner) WithoutRootfs() Runner {
	nr := r
	nr.RootfsPath = ""
	return nr
}

///////////////////////////////////////////////////////////////////////////////
// Digest
///////////////////////////////////////////////////////////////////////////////

func (r Runner) WithDigest(digest string) Runner {
	nr := r
	nr.Digest = digest
	return nr
}

///////////////////////////////////////////////////////////////////////////////
// Metrics
///////////////////////////////////////////////////////////////////////////////

func (r Runner) WithMetronEndpoint(host net.IP, port uint16) Runner {
	nr := r
	nr.MetronHost = host
	nr.MetronPort = port
	return nr
}

///////////////////////////////////////////////////////////////////////////////
// Logging
///////////////////////////////////////////////////////////////////////////////

func (r Runner) WithLogLevel(level lager.LogLevel) Runner {
	nr := r
	nr.LogLevel = level
	nr.LogLevelSet = true
	return nr
}

func (r Runner) WithoutLogLevel() Runner {
	nr := r
	nr.LogLevelSet = false
	return nr
}

func (r Runner) WithLogFile(path string) Runner {
	nr := r
	nr.LogFile = path
	return nr
}

///////////////////////////////////////////////////////////////////////////////
// Streams
///////////////////////////////////////////////////////////////////////////////

func (r Runner) WithStdout(stdout io.Writer) Runner {
	nr := r
	nr.Stdout = stdout
	return nr
}

func (r Runner) WithStderr(stderr io.Writer) Runner {
	nr := r
	nr.Stderr = stderr
	return nr
}

///////////////////////////////////////////////////////////////////////////////
// Environment
///////////////////////////////////////////////////////////////////////////////

func (r Runner) WithEnv(env ...string) Runner {
	nr := r
	nr.Env = append(nr.Env, env...)
	return nr
}

///////////////////////////////////////////////////////////////////////////////
// Configuration file
///////////////////////////////////////////////////////////////////////////////

func (r Runner) WithConfig(path string) Runner {
	nr := r
	nr.ConfigPath = path
	return nr
}

func (r *Runner) SetConfig(cfg config.Config) error {
	configYaml, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	configFile, err := os.CreateTemp("", "")
	if err != nil {
		return err
	}
	defer configFile.Close()

	_, err = configFile.Write(configYaml)
	if err != nil {
		os.Remove(configFile.Name())
		return err
	}

	r.ConfigPath = configFile.Name()

	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Timeout
///////////////////////////////////////////////////////////////////////////////

func (r Runner) WithTimeout(timeout time.Duration) Runner {
	nr := r
	nr.Timeout = timeout
	return nr
}
