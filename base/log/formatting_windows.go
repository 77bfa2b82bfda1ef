package log

const rightArrow = ">"

const (
	colorRed     = "\033[91m"
	colorYellow  = "\033[93m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorGreen   = "\033[92m"
)

// Colors are only emitted when the writer is a terminal, see LogWriter.
func (s Severity) color() string {
	switch s {
	case DebugLevel:
		return colorCyan
	case InfoLevel:
		return colorGreen
	case WarningLevel:
		return colorYellow
	case ErrorLevel:
		return colorRed
	case CriticalLevel:
		return colorMagenta
	default:
		return ""
	}
}

func endColor() string {
	return "\033[0m"
}
