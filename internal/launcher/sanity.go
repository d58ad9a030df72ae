package launcher

import (
	"os"
	"os/exec"
)

// SanityReport describes runtime checks for external dependencies.
type SanityReport struct {
	JavaFound bool   `json:"java_found"`
	JavaPath  string `json:"java_path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SanityCheck validates that the java executable is available.
// It does not mutate state and is safe to call at any time.
func (s *Supervisor) SanityCheck() SanityReport {
	bin, err := exec.LookPath(s.cfg.JavaPath)
	if err != nil {
		return SanityReport{JavaPath: s.cfg.JavaPath, Error: err.Error()}
	}
	fi, err := os.Stat(bin)
	if err != nil {
		return SanityReport{JavaPath: bin, Error: err.Error()}
	}
	if fi.IsDir() {
		return SanityReport{JavaPath: bin, Error: "java path is a directory"}
	}
	return SanityReport{JavaFound: true, JavaPath: bin}
}
