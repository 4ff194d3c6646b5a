package config

const (
	defaultConfigPath  = "~/.config/vpkplaces/config.toml"
	projectConfigName  = "vpkplaces.toml"
	defaultHistoryPath = "~/.local/share/vpkplaces/history.db"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"

	// DefaultFilter selects competitive map packages and leaves out vanity variants.
	DefaultFilter = `^(ar|cs|de)((?!vanity).)*\.vpk$`
	// DefaultFormat is the output encoding used when none is configured.
	DefaultFormat = "json"
	// DefaultMergedName is the base name of the merged output file.
	DefaultMergedName = "merged"

	inputDirEnv = "VPKPLACES_INPUT_DIR"
)

var defaultInputCandidates = []string{
	`C:\Program Files (x86)\Steam\steamapps\common\Counter-Strike Global Offensive\game\csgo\maps`,
	"~/.local/share/Steam/steamapps/common/Counter-Strike Global Offensive/game/csgo/maps",
	"~/.steam/steam/steamapps/common/Counter-Strike Global Offensive/game/csgo/maps",
	"~/Library/Application Support/Steam/steamapps/common/Counter-Strike Global Offensive/game/csgo/maps",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Extract: Extract{
			Filter: DefaultFilter,
		},
		Output: Output{
			Format:     DefaultFormat,
			MergedName: DefaultMergedName,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
