package server

// ANSI colours for the DEV route listing
const (
	colourGreen   = "\033[32m"
	colourBlue    = "\033[34m"
	colourYellow  = "\033[33m"
	colourMagenta = "\033[35m"
	colourGray    = "\033[90m"
	colourReset   = "\033[0m"
)

var methodColours = map[string]string{
	"GET":    colourGreen,
	"POST":   colourBlue,
	"DELETE": colourYellow,
	"PATCH":  colourMagenta,
}
