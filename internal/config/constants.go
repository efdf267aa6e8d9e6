package config

import "time"

// AppVersion is overridden at build time with -ldflags "-X pulldata/internal/config.AppVersion=..."
var AppVersion = "1.0.0"

// Application constants
const (
	AppName = "pullupdate"

	// EnvPrefix namespaces every environment variable, e.g. PULLDATA_PORTAL_USERNAME
	EnvPrefix = "PULLDATA"

	// Source kinds
	SourceExcel  = "excel"
	SourceCSVURL = "csv_url"
	SourceSheets = "sheets"

	// Spreadsheet defaults
	DefaultSheet = "For Pull Data"

	// Paths (relative to the working directory)
	DefaultCSVPath       = "data/pulldata.csv"
	DefaultDownloadDir   = "data/survey"
	DefaultExtractFolder = "_extracted"
	DefaultMediaDir      = "esriinfo/media"
	DefaultLogFile       = "logs/pullupdate.log"

	// Portal
	DefaultPortalURL       = "https://www.arcgis.com"
	DefaultHTTPTimeout     = 2 * time.Minute
	DefaultTokenExpiration = 60 // minutes

	// Mail
	DefaultMailHost    = "smtp.gmail.com"
	DefaultMailPort    = 587
	DefaultMailSubject = "Survey pull data updated"
	DefaultMailTimeout = 30 * time.Second

	// Notice formats
	NoticeDateLayout = "01/02/2006"
	NoticeTimeLayout = "03:04:05 PM"
)

// DefaultColumns returns the positional columns read from the source
func DefaultColumns() []int {
	return []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
}
