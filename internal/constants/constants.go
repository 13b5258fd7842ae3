package constants

// Store layout
const (
	NoteExtension    = ".md"
	SidecarExtension = ".embedding"
	DateDirLayout    = "2006-01-02"
	TimeNameLayout   = "15-04-05"
)

// Query defaults
const (
	DefaultSearchLimit  = 10
	DefaultRecentLimit  = 10
	DefaultMinScore     = 0.1
	RecentResultScore   = 1.0
	DefaultExcerptChars = 200
	ExcerptWindowStep   = 50
)

// File permissions
const (
	ConfigFileMode = 0600 // Secure file permissions for config
	NoteFileMode   = 0644
	DirMode        = 0755
)
