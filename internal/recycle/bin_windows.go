package recycle

import (
	"os"
	"path/filepath"
)

// DefaultTrashDir is the Recycle Bin folder of the system drive
func DefaultTrashDir() string {
	drive := os.Getenv("SystemDrive")
	if drive == "" {
		drive = "C:"
	}
	return filepath.Join(drive+`\`, "$Recycle.Bin")
}
