package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// GetAbsPath expands a leading ~ to the home directory and makes the path absolute
func GetAbsPath(path string) string {
	result := path
	if strings.HasPrefix(path, "~") {
		homedir, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Msg("Couldn't determine the home directory")
		}
		result = strings.Replace(path, "~", homedir, 1)
	}
	if abs, err := filepath.Abs(result); err == nil {
		result = abs
	}
	return result
}

func FolderExists(path string) error {
	folderInfo, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}
