// Package portal is a minimal client for the ArcGIS portal sharing REST API.
//
// It covers what a survey refresh needs and nothing more: generate a token
// for a named user, read item properties, download the item data and upload
// replacement data. Portal errors arrive as JSON with HTTP 200 and are mapped
// to typed errors from package errors.
package portal
