// Package config provides the configuration for the pullupdate job.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later sources
// overriding earlier ones:
//
//	1. Default values (Default)
//	2. A YAML file (pullupdate.yaml or configs/pullupdate.yaml, or --config)
//	3. A .env file in the working directory
//	4. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern PULLDATA_<SECTION>_<FIELD>:
//
//	PULLDATA_SOURCE_KIND=excel
//	PULLDATA_SOURCE_PATH=/data/minerals.xlsm
//	PULLDATA_OUTPUT_CSV_PATH=/data/pulldata.csv
//	PULLDATA_PORTAL_USERNAME=gisadmin
//	PULLDATA_SURVEY_ITEM_ID=89bc8c7844e548e09baa3aad4695e78b
//	PULLDATA_MAIL_RECIPIENTS=a@example.com,b@example.com
//
// # Workspace
//
// SurveyConfig.Workspace resolves the download folder, the extraction folder
// and the media file the refreshed CSV replaces:
//
//	ws := cfg.Survey.Workspace()
//	dst := ws.MediaPath() // <download_dir>/_extracted/esriinfo/media/<media_file>
//
// # Validation
//
// Load validates struct tags and the source settings. Portal and mail
// settings are checked by ValidatePublish and ValidateMail, so the clean-only
// command runs without portal credentials.
package config
