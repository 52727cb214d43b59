package redcap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMissingKeys(t *testing.T) {
	pl := &Payload{}
	pl.Set(keyToken, "t")

	err := OpExportRecords.validate(pl)
	require.Error(t, err)

	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"content", "format", "type"}, ce.Missing, "missing keys are sorted")
	assert.True(t, IsRejected(err))
}

func TestValidateContentMismatch(t *testing.T) {
	pl := newPayload("t", "metadata")
	pl.Set(keyFormat, "json")
	pl.Set("type", "flat")

	err := OpExportRecords.validate(pl)
	require.Error(t, err)

	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Empty(t, ce.Missing)
	assert.Contains(t, ce.Message, "content is not record")
}

func TestValidateFileOperation(t *testing.T) {
	pl := newPayload("t", "file")
	pl.Set("action", "export")
	pl.Set("record", "1")
	pl.Set("field", "consent_form")

	assert.NoError(t, OpExportFile.validate(pl))

	pl2 := newPayload("t", "file")
	pl2.Set("action", "export")
	err := OpExportFile.validate(pl2)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"field", "record"}, ce.Missing)
}

func TestValidateVersionNeedsNoFormat(t *testing.T) {
	pl := newPayload("t", "version")
	assert.NoError(t, OpExportVersion.validate(pl))
}

func TestDescriptorPolicies(t *testing.T) {
	assert.True(t, OpExportFile.desc().rawBytes)
	assert.True(t, OpExportVersion.desc().rawBytes)
	assert.False(t, OpExportRecords.desc().rawBytes)

	assert.True(t, OpImportFile.desc().allowEmpty)
	assert.True(t, OpDeleteFile.desc().allowEmpty)
	assert.False(t, OpImportRecords.desc().allowEmpty)
}

func TestOperationStrings(t *testing.T) {
	ops := []Operation{
		OpExportRecords, OpImportRecords, OpDeleteRecords, OpGenerateNextRecordName,
		OpExportMetadata, OpImportMetadata, OpExportFile, OpImportFile, OpDeleteFile,
		OpExportEvents, OpImportEvents, OpDeleteEvents, OpExportArms, OpImportArms,
		OpDeleteArms, OpExportFEM, OpExportUsers, OpExportReport, OpExportVersion,
		OpExportProjectInfo, OpExportFieldNames,
	}
	seen := make(map[string]bool)
	for _, op := range ops {
		s := op.String()
		assert.NotContains(t, s, "operation(")
		assert.False(t, seen[s], "duplicate name %q", s)
		seen[s] = true
	}
}
