package redcap

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDictionary = `[
	{"field_name":"study_id","form_name":"demographics","field_type":"text"},
	{"field_name":"age","form_name":"demographics","field_type":"text"},
	{"field_name":"consent_form","form_name":"consent","field_type":"file"},
	{"field_name":"notes","form_name":"consent","field_type":"notes"}
]`

func TestMetadataFetchedOnce(t *testing.T) {
	var hits atomic.Int64
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testDictionary))
	})

	ctx := context.Background()
	meta, err := proj.Metadata(ctx)
	require.NoError(t, err)
	require.Len(t, meta, 4)

	names, err := proj.FieldNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"study_id", "age", "consent_form", "notes"}, names)

	forms, err := proj.Forms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"demographics", "consent"}, forms)

	def, err := proj.DefField(ctx)
	require.NoError(t, err)
	assert.Equal(t, "study_id", def)

	assert.Equal(t, int64(1), hits.Load(), "dictionary is cached after the first export")
}

func TestMetadataValue(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testDictionary))
	})

	ctx := context.Background()
	ft, err := proj.metadataValue(ctx, "consent_form", "field_type")
	require.NoError(t, err)
	assert.Equal(t, "file", ft)

	_, err = proj.metadataValue(ctx, "no_such_field", "field_type")
	var ue *UsageError
	require.ErrorAs(t, err, &ue)
}

func TestFilterMetadata(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testDictionary))
	})

	ctx := context.Background()
	types, err := proj.FilterMetadata(ctx, "field_type")
	require.NoError(t, err)
	assert.Equal(t, []string{"text", "text", "file", "notes"}, types)

	_, err = proj.FilterMetadata(ctx, "no_such_attribute")
	var ue *UsageError
	require.ErrorAs(t, err, &ue)
}

func TestExportMetadataTable(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "metadata", r.PostFormValue("content"))
		assert.Equal(t, "csv", r.PostFormValue("format"), "table output requests csv on the wire")
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("field_name,form_name\nstudy_id,demographics\nage,demographics\n"))
	})

	res, err := proj.ExportMetadata(context.Background(), ExportMetadataOptions{Format: FormatTable})
	require.NoError(t, err)
	require.NotNil(t, res.Table)
	assert.Equal(t, []string{"field_name"}, res.Table.Index())
	assert.Equal(t, 2, res.Table.Len())

	rows := res.Table.Lookup("age")
	require.Len(t, rows, 1)
	assert.Equal(t, "demographics", rows[0]["form_name"])
}

func TestExportMetadataFieldFilter(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "age", r.PostFormValue("fields[0]"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"field_name":"age"}]`))
	})

	res, err := proj.ExportMetadata(context.Background(), ExportMetadataOptions{Fields: []string{"age"}})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
}

func TestImportMetadataRefreshesDictionary(t *testing.T) {
	var imported atomic.Bool
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.PostFormValue("data") != "" {
			imported.Store(true)
			w.Write([]byte(`1`))
			return
		}
		if imported.Load() {
			w.Write([]byte(`[{"field_name":"participant_id","form_name":"intake","field_type":"text"}]`))
			return
		}
		w.Write([]byte(testDictionary))
	})

	ctx := context.Background()
	names, err := proj.FieldNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"study_id", "age", "consent_form", "notes"}, names)

	count, err := proj.ImportMetadata(ctx, ImportMetadataOptions{
		Data: []map[string]string{{"field_name": "participant_id"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	names, err = proj.FieldNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"participant_id"}, names, "the cached dictionary is dropped on import")
}

func TestExportFieldNames(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "exportFieldNames", r.PostFormValue("content"))
		assert.Equal(t, "age", r.PostFormValue("field"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"original_field_name":"age","choice_value":"","export_field_name":"age"}]`))
	})

	res, err := proj.ExportFieldNames(context.Background(), ExportFieldNamesOptions{Field: "age"})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "age", res.Records[0]["export_field_name"])
}

func TestExportFieldNamesTable(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "csv", r.PostFormValue("format"))
		_, present := r.PostForm["field"]
		assert.False(t, present, "an unset field filter is omitted")
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("original_field_name,choice_value,export_field_name\nmeds,1,meds___1\nmeds,2,meds___2\n"))
	})

	res, err := proj.ExportFieldNames(context.Background(), ExportFieldNamesOptions{Format: FormatTable})
	require.NoError(t, err)
	require.NotNil(t, res.Table)
	assert.Equal(t, []string{"original_field_name"}, res.Table.Index())

	rows := res.Table.Lookup("meds")
	require.Len(t, rows, 2)
	assert.Equal(t, "meds___2", rows[1]["export_field_name"])
}

func TestImportMetadata(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "metadata", r.PostFormValue("content"))
		assert.Equal(t, "YMD", r.PostFormValue("dateFormat"))
		assert.NotEmpty(t, r.PostFormValue("data"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`4`))
	})

	count, err := proj.ImportMetadata(context.Background(), ImportMetadataOptions{
		Data: []map[string]string{{"field_name": "study_id"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
