package config

const (
	defaultLibraryDir   = "~/.local/share/hotpix/library"
	defaultDatabasePath = "~/.local/share/hotpix/hotpix.db"
	defaultLogDir       = "~/.local/share/hotpix/logs"
	defaultWorkers      = 4
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:   defaultLibraryDir,
			DatabasePath: defaultDatabasePath,
			LogDir:       defaultLogDir,
		},
		Import: Import{
			Workers: defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
