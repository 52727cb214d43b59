// Package redcap provides a Go client for the REDCap clinical data capture
// HTTP API.
//
// REDCap exposes a single form-encoded POST endpoint; every request carries
// an authentication token and a content discriminator naming the target
// resource kind (record, metadata, file, event, arm, user, report, ...).
// This package assembles and validates those payloads, performs the call,
// and decodes the response according to the requested format.
//
// # Quick Start
//
// Create a Project and export records:
//
//	proj, err := redcap.NewProject(url, token)
//	if err != nil {
//	    return err
//	}
//	res, err := proj.ExportRecords(ctx, redcap.ExportRecordsOptions{})
//
// Use custom configuration:
//
//	proj, err := redcap.NewProject(url, token,
//	    redcap.WithHTTPClient(customHTTPClient),
//	    redcap.WithCABundle("/etc/ssl/redcap-ca.pem"),
//	)
//
// # Output Formats
//
// Export methods accept a Format: FormatJSON decodes the body into
// []map[string]any, FormatCSV and FormatXML return the body text unchanged,
// and FormatTable requests CSV on the wire and reshapes it into an indexed
// *table.Table, choosing index columns appropriate to the content kind
// (for example field_name for metadata, or the project's key field plus
// redcap_event_name for longitudinal records).
//
// # Errors
//
// Failures are reported through a small taxonomy: *ConfigurationError for
// payloads rejected before any network call, *ServiceError for error
// indicators embedded in a response body (REDCap signals semantic failures
// inside 2xx bodies), *DecodeError for unparseable bodies, and *UsageError
// for requests the library refuses to build. Transport failures propagate
// wrapped and unmodified; no call is retried internally. Use IsRejected to
// catch the "this call was rejected" family in one test:
//
//	if _, err := proj.ImportRecords(ctx, opts); redcap.IsRejected(err) {
//	    // bad payload or service-side rejection, not a transport problem
//	}
//
// # Client-Side Filtering
//
// Project.Filter evaluates a pkg/query expression tree against exported
// records and re-exports the matching subset:
//
//	q, _ := query.New("age", map[query.Verb]string{query.Ge: "18"}, query.Number)
//	rows, err := proj.Filter(ctx, q, []string{"age", "study_arm"})
package redcap
