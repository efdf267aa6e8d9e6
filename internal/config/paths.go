package config

import (
	"path/filepath"
	"strings"
)

// Workspace resolves the local folders the survey package passes through.
//
//	<download_dir>/
//	  ├── <item>.zip          (downloaded package, removed after extraction)
//	  ├── <survey title>.zip  (rebuilt package, removed after upload)
//	  └── _extracted/
//	      └── esriinfo/media/<media_file>
type Workspace struct {
	DownloadDir string
	ExtractDir  string
	MediaDir    string
	MediaFile   string
}

// Workspace returns the resolved workspace for the survey configuration
func (s SurveyConfig) Workspace() *Workspace {
	extract := filepath.Join(s.DownloadDir, s.ExtractFolder)
	return &Workspace{
		DownloadDir: s.DownloadDir,
		ExtractDir:  extract,
		MediaDir:    filepath.Join(extract, filepath.FromSlash(s.MediaDir)),
		MediaFile:   s.MediaFile,
	}
}

// MediaPath returns where the refreshed file lands inside the extracted tree
func (w *Workspace) MediaPath() string {
	return filepath.Join(w.MediaDir, w.MediaFile)
}

// ArchivePath returns the path of the rebuilt package for the survey title
func (w *Workspace) ArchivePath(title string) string {
	return filepath.Join(w.DownloadDir, ArchiveName(title))
}

// ArchiveName turns a survey title into a zip file name. Path separators are
// replaced so a title can never leave the download folder.
func ArchiveName(title string) string {
	name := strings.TrimSpace(title)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		name = "survey"
	}
	return name + ".zip"
}
