package domain

const (
	// ConfigFileName is the name of the optional project configuration file.
	ConfigFileName = "kiln.yaml"

	// EnvFileName is the name of the optional dotenv file next to the config.
	EnvFileName = ".env"

	// EnvPrefix prefixes every environment variable kiln reads.
	EnvPrefix = "KILN_"

	// DefaultServeDir is the directory served by the development server.
	DefaultServeDir = "dist"

	// StylesBundleName is the concatenated stylesheet artifact.
	StylesBundleName = "main.css"

	// ScriptsBundleName is the bundled script artifact.
	ScriptsBundleName = "bundle.js"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)
