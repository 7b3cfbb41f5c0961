package config

const (
	defaultWatchDir             = "~/uploads"
	defaultPhotosRoot           = "~/photos"
	defaultLogDir               = "~/.local/share/dropsort/logs"
	defaultDataDir              = "~/.local/share/dropsort"
	defaultWaitSec              = 5
	defaultMaxTries             = 10
	defaultMaxWorkers           = 4
	defaultRetryAttempts        = 3
	defaultCopyBufferSize       = 1 << 20
	defaultMaxProcessingHistory = 1000
	defaultQueueCapacity        = 256
	defaultDebounceMs           = 2000
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir:   defaultWatchDir,
			PhotosRoot: defaultPhotosRoot,
			LogDir:     defaultLogDir,
			DataDir:    defaultDataDir,
		},
		Pipeline: Pipeline{
			WaitSec:              defaultWaitSec,
			MaxTries:             defaultMaxTries,
			MaxWorkers:           defaultMaxWorkers,
			RetryAttempts:        defaultRetryAttempts,
			CopyBufferSize:       defaultCopyBufferSize,
			MaxProcessingHistory: defaultMaxProcessingHistory,
			QueueCapacity:        defaultQueueCapacity,
		},
		Watcher: Watcher{
			DebounceMs:     defaultDebounceMs,
			InitialScan:    true,
			CleanEmptyDirs: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
