package config

type Builder struct {
	config *Config
}

func NewBuilder() *Builder {
	return &Builder{
		config: &Config{},
	}
}

func NewBuilderFromFile(pathToYaml string) (*Builder, error) {
	config, err := Load(pathToYaml)
	if err != nil {
		return nil, err
	}

	return &Builder{
		config: &config,
	}, nil
}

func (b *Builder) Build() Config {
	return *b.config
}

func (b *Builder) WithRootfsPath(rootfsPath string) *Builder {
	if rootfsPath == "" {
		return b
	}

	b.config.RootfsPath = rootfsPath
	return b
}

func (b *Builder) WithMetronEndpoint(metronEndpoint string) *Builder {
	if metronEndpoint == "" {
		return b
	}

	b.config.MetronEndpoint = metronEndpoint
	return b
}

func (b *Builder) WithLogLevel(logLevel string) *Builder {
	if logLevel == "" {
		return b
	}

	b.config.LogLevel = logLevel
	return b
}

func (b *Builder) WithLogFile(logFile string) *Builder {
	if logFile == "" {
		return b
	}

	b.config.LogFile = logFile
	return b
}
