// Package workdir manages where the breathe CLI writes generated guidance audio.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Root returns the base directory for all CLI output. The path is expanded
// at runtime to resolve to:
//
//	$HOME/Documents/Alkime/BreatheWise
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "Alkime", "BreatheWise"), nil
}

// AudioPath returns the directory guidance audio for a mood is written to.
func AudioPath(mood string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "audio", mood), nil
}

// AudioFile returns a timestamped file path for mood guidance with the given
// extension, creating the directory if needed.
func AudioFile(mood, ext string, now time.Time) (string, error) {
	dir, err := AudioPath(mood)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory %s: %w", dir, err)
	}

	return filepath.Join(dir, now.Format("20060102-150405")+"."+ext), nil
}
