package globals

import "runtime"

const VERSION = "v0.1.0"

const (
	DEFAULT_CONFIG = "daisy.yaml"
	DEFAULT_INPUT  = "daisy.dat"
	DEFAULT_OUTPUT = "out.txt"
	DEFAULT_METHOD = "auto"
)

// FINAL_METHOD is used for the last pass over the concatenated legs: the legs are already
// ordered, the tool only formats them (and draws the image).
const FINAL_METHOD = "none"

// DefaultTool is the name of the routing executable looked up on PATH.
func DefaultTool() string {
	if runtime.GOOS == "windows" {
		return "tss.exe"
	}
	return "tss"
}
