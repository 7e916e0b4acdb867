package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency subsync relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// SyncRequirements lists the tools a sync run shells out to.
func SyncRequirements(ffmpeg, ffprobe, uvx string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for audio extraction and preprocessing",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Required for audio stream inspection",
		},
		{
			Name:        "uvx",
			Command:     uvx,
			Description: "Required for WhisperX speech segmentation",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Available commands carry their resolved path.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

// MissingError summarizes missing required dependencies, or returns nil.
func MissingError(statuses []Status) error {
	missing := Missing(statuses)
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, status := range missing {
		names[i] = fmt.Sprintf("%s (%s)", status.Name, status.Detail)
	}
	return fmt.Errorf("missing dependencies: %s", strings.Join(names, ", "))
}
