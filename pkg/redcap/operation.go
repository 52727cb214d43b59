package redcap

import (
	"fmt"
	"sort"
)

// Operation identifies one request kind: the resource/action pair that
// drives both payload validation and response decoding.
type Operation int

const (
	OpExportRecords Operation = iota
	OpImportRecords
	OpDeleteRecords
	OpGenerateNextRecordName
	OpExportMetadata
	OpImportMetadata
	OpExportFile
	OpImportFile
	OpDeleteFile
	OpExportEvents
	OpImportEvents
	OpDeleteEvents
	OpExportArms
	OpImportArms
	OpDeleteArms
	OpExportFEM
	OpExportUsers
	OpExportReport
	OpExportVersion
	OpExportProjectInfo
	OpExportFieldNames
)

// descriptor carries the static validation and decode policy for one
// operation kind. Descriptors are fixed at compile time and never mutated.
type descriptor struct {
	extraKeys  []string // required payload keys beyond token and content
	content    string   // expected content discriminator
	mismatch   string   // error message on a content mismatch
	rawBytes   bool     // response is opaque bytes regardless of format
	allowEmpty bool     // an empty or undecodable JSON body is a non-error
}

// desc returns the static table entry for the operation. The switch is
// exhaustive over all Operation values.
func (op Operation) desc() descriptor {
	switch op {
	case OpExportRecords:
		return descriptor{
			extraKeys: []string{"type", keyFormat},
			content:   "record",
			mismatch:  "exporting records but content is not record",
		}
	case OpImportRecords:
		return descriptor{
			extraKeys: []string{"type", "overwriteBehavior", "data", keyFormat},
			content:   "record",
			mismatch:  "importing records but content is not record",
		}
	case OpDeleteRecords:
		return descriptor{
			extraKeys: []string{"action"},
			content:   "record",
			mismatch:  "deleting records but content is not record",
		}
	case OpGenerateNextRecordName:
		return descriptor{
			extraKeys: []string{keyFormat},
			content:   "generateNextRecordName",
			mismatch:  "generating a record name but content is not generateNextRecordName",
		}
	case OpExportMetadata:
		return descriptor{
			extraKeys: []string{keyFormat},
			content:   "metadata",
			mismatch:  "requesting metadata but content is not metadata",
		}
	case OpImportMetadata:
		return descriptor{
			extraKeys: []string{"data", keyFormat},
			content:   "metadata",
			mismatch:  "importing metadata but content is not metadata",
		}
	case OpExportFile:
		return descriptor{
			extraKeys: []string{"action", "record", "field"},
			content:   "file",
			mismatch:  "exporting a file but content is not file",
			rawBytes:  true,
		}
	case OpImportFile:
		return descriptor{
			extraKeys:  []string{"action", "record", "field"},
			content:    "file",
			mismatch:   "importing a file but content is not file",
			allowEmpty: true,
		}
	case OpDeleteFile:
		return descriptor{
			extraKeys:  []string{"action", "record", "field"},
			content:    "file",
			mismatch:   "deleting a file but content is not file",
			allowEmpty: true,
		}
	case OpExportEvents:
		return descriptor{
			extraKeys: []string{keyFormat},
			content:   "event",
			mismatch:  "exporting events but content is not event",
		}
	case OpImportEvents:
		return descriptor{
			extraKeys: []string{"action", "data", keyFormat},
			content:   "event",
			mismatch:  "importing events but content is not event",
		}
	case OpDeleteEvents:
		return descriptor{
			extraKeys: []string{"action"},
			content:   "event",
			mismatch:  "deleting events but content is not event",
		}
	case OpExportArms:
		return descriptor{
			extraKeys: []string{keyFormat},
			content:   "arm",
			mismatch:  "exporting arms but content is not arm",
		}
	case OpImportArms:
		return descriptor{
			extraKeys: []string{"action", "data", keyFormat},
			content:   "arm",
			mismatch:  "importing arms but content is not arm",
		}
	case OpDeleteArms:
		return descriptor{
			extraKeys: []string{"action"},
			content:   "arm",
			mismatch:  "deleting arms but content is not arm",
		}
	case OpExportFEM:
		return descriptor{
			extraKeys: []string{keyFormat},
			content:   "formEventMapping",
			mismatch:  "exporting form-event mappings but content is not formEventMapping",
		}
	case OpExportUsers:
		return descriptor{
			extraKeys: []string{keyFormat},
			content:   "user",
			mismatch:  "exporting users but content is not user",
		}
	case OpExportReport:
		return descriptor{
			extraKeys: []string{keyFormat, "report_id"},
			content:   "report",
			mismatch:  "exporting a report but content is not report",
		}
	case OpExportVersion:
		return descriptor{
			content:  "version",
			mismatch: "requesting the version but content is not version",
			rawBytes: true,
		}
	case OpExportProjectInfo:
		return descriptor{
			extraKeys: []string{keyFormat},
			content:   "project",
			mismatch:  "exporting project info but content is not project",
		}
	case OpExportFieldNames:
		return descriptor{
			extraKeys: []string{keyFormat},
			content:   "exportFieldNames",
			mismatch:  "exporting field names but content is not exportFieldNames",
		}
	}
	panic(fmt.Sprintf("redcap: unknown operation %d", int(op)))
}

func (op Operation) String() string {
	switch op {
	case OpExportRecords:
		return "export records"
	case OpImportRecords:
		return "import records"
	case OpDeleteRecords:
		return "delete records"
	case OpGenerateNextRecordName:
		return "generate next record name"
	case OpExportMetadata:
		return "export metadata"
	case OpImportMetadata:
		return "import metadata"
	case OpExportFile:
		return "export file"
	case OpImportFile:
		return "import file"
	case OpDeleteFile:
		return "delete file"
	case OpExportEvents:
		return "export events"
	case OpImportEvents:
		return "import events"
	case OpDeleteEvents:
		return "delete events"
	case OpExportArms:
		return "export arms"
	case OpImportArms:
		return "import arms"
	case OpDeleteArms:
		return "delete arms"
	case OpExportFEM:
		return "export form-event mappings"
	case OpExportUsers:
		return "export users"
	case OpExportReport:
		return "export report"
	case OpExportVersion:
		return "export version"
	case OpExportProjectInfo:
		return "export project info"
	case OpExportFieldNames:
		return "export field names"
	}
	return fmt.Sprintf("operation(%d)", int(op))
}

// validate checks the payload against the operation's descriptor: the
// required key set {token, content} plus the descriptor's extras must all
// be present, and the content discriminator must carry the expected value.
// It runs before any network call and is never retried.
func (op Operation) validate(p *Payload) error {
	d := op.desc()
	required := append([]string{keyToken, keyContent}, d.extraKeys...)
	var missing []string
	for _, key := range required {
		if !p.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ConfigurationError{Missing: missing}
	}
	if got := p.Get(keyContent); got != d.content {
		return &ConfigurationError{Message: d.mismatch}
	}
	return nil
}
