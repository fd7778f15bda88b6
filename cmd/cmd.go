package cmd

// configPath is the --config flag value shared by all subcommands; the root
// command sets it before execution.
var configPath string

// SetConfigPath records the configuration file path from the root command's
// persistent flag.
func SetConfigPath(path string) {
	configPath = path
}

func cfgFile() string {
	return configPath
}
