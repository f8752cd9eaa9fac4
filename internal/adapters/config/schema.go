package config

// Kilnfile represents the structure of the kiln.yaml configuration file.
// Every field is optional.
type Kilnfile struct {
	// Root is the project root relative to the file. Defaults to its directory.
	Root     string             `yaml:"root"`
	Mode     string             `yaml:"mode"`
	Debounce string             `yaml:"debounce"`
	Serve    string             `yaml:"serve"`
	Server   ServerDTO          `yaml:"server"`
	Paths    map[string]PathDTO `yaml:"paths"`
}

// ServerDTO configures the development server.
type ServerDTO struct {
	Addr    string `yaml:"addr"`
	Enabled *bool  `yaml:"enabled"`
}

// PathDTO overrides individual fields of one asset class's path entry.
type PathDTO struct {
	Source string `yaml:"source"`
	Output string `yaml:"output"`
	Watch  string `yaml:"watch"`
	Clean  string `yaml:"clean"`
}
