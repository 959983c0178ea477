package config

const (
	defaultConfigPath       = "~/.config/mediasort/config.toml"
	defaultStateDir         = "~/.local/share/mediasort"
	defaultLogDir           = "~/.local/share/mediasort/logs"
	defaultDatabaseName     = "mediasort.db"
	defaultBatchSize        = 10
	defaultBusyTimeoutMS    = 5000
	defaultTarget           = "local"
	defaultTransfer         = "rsync"
	defaultExiftool         = "exiftool"
	defaultRsync            = "rsync"
	defaultTouch            = "touch"
	defaultWatchSubsystem   = "block"
	defaultWatchDevType     = "partition"
	defaultWatchSettle      = 5
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30

	// EnvDatabasePath overrides store.path when the file leaves it empty.
	EnvDatabasePath = "MEDIASORT_DB_PATH"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Store: Store{
			BatchSize:     defaultBatchSize,
			BusyTimeoutMS: defaultBusyTimeoutMS,
		},
		Ingest: Ingest{
			Photos:     []string{"/multimedia/Photos"},
			Videos:     []string{"/multimedia/Videos", "/multimedia/Home_Videos", "/multimedia/TikTok"},
			NativeEXIF: true,
		},
		Organizer: Organizer{
			Target:         defaultTarget,
			Transfer:       defaultTransfer,
			Stamp:          true,
			CandidateRoots: []string{"/mnt", "~/mnt", "/media/$USER", "/run/media/$USER"},
			Local: Roots{
				Photos:  "~/Pictures",
				Videos:  "~/Videos",
				Dashcam: "~/Videos/DC",
				Social:  "~/Videos/TikTok",
			},
			Remote: Roots{
				Photos:  "/multimedia/photos",
				Videos:  "/multimedia/videos",
				Dashcam: "/multimedia/videos/DC",
				Social:  "/multimedia/videos/TikTok",
			},
		},
		Tools: Tools{
			Exiftool: defaultExiftool,
			Rsync:    defaultRsync,
			Touch:    defaultTouch,
		},
		Watch: Watch{
			Subsystem:     defaultWatchSubsystem,
			DevType:       defaultWatchDevType,
			SettleSeconds: defaultWatchSettle,
			Target:        defaultTarget,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
