package tools

const (
	// ToolName identifies the companion tool in logs and status output.
	ToolName = "wakatime-cli"

	// ArchiveURL serves a zip of the tool's source tree at the master branch.
	ArchiveURL = "https://codeload.github.com/wakatime/wakatime/zip/master"

	// VersionURL serves the plain-text version descriptor.
	VersionURL = "https://raw.githubusercontent.com/wakatime/wakatime/master/wakatime/__about__.py"

	// UnknownVersion is returned when a descriptor cannot be parsed.
	UnknownVersion = "Unknown"

	versionSwitch   = "--version"
	archiveFileName = "wakatime-cli.zip"
	aboutFile       = "__about__.py"
)
