package redcap

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportEvents(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "event", r.PostFormValue("content"))
		assert.Equal(t, "1", r.PostFormValue("arms[0]"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"event_name":"Baseline","unique_event_name":"baseline_arm_1"}]`))
	})

	res, err := proj.ExportEvents(context.Background(), ExportEventsOptions{Arms: []string{"1"}})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "baseline_arm_1", res.Records[0]["unique_event_name"])
}

func TestImportEvents(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "import", r.PostFormValue("action"))
		assert.Equal(t, "1", r.PostFormValue("override"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`2`))
	})

	count, err := proj.ImportEvents(context.Background(), ImportEventsOptions{
		Data:     []map[string]string{{"event_name": "Baseline"}, {"event_name": "Followup"}},
		Override: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteEvents(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "delete", r.PostFormValue("action"))
		assert.Equal(t, "baseline_arm_1", r.PostFormValue("events[0]"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`1`))
	})

	count, err := proj.DeleteEvents(context.Background(), []string{"baseline_arm_1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = proj.DeleteEvents(context.Background(), nil, "")
	var ue *UsageError
	assert.ErrorAs(t, err, &ue)
}

func TestArmsRoundTrip(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "arm", r.PostFormValue("content"))
		w.Header().Set("Content-Type", "application/json")
		switch r.PostFormValue("action") {
		case "import":
			assert.Equal(t, "0", r.PostFormValue("override"))
			w.Write([]byte(`1`))
		case "delete":
			assert.Equal(t, "2", r.PostFormValue("arms[0]"))
			w.Write([]byte(`1`))
		default:
			w.Write([]byte(`[{"arm_num":"1","name":"Arm 1"}]`))
		}
	})
	ctx := context.Background()

	res, err := proj.ExportArms(ctx, ExportArmsOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	count, err := proj.ImportArms(ctx, ImportArmsOptions{Data: []map[string]string{{"arm_num": "2"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = proj.DeleteArms(ctx, []string{"2"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExportFormEventMappings(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "formEventMapping", r.PostFormValue("content"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"arm_num":"1","unique_event_name":"baseline_arm_1","form":"demographics"}]`))
	})

	res, err := proj.ExportFormEventMappings(context.Background(), ExportFEMOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "demographics", res.Records[0]["form"])
}

func TestExportUsers(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "user", r.PostFormValue("content"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"username":"researcher@example.org","email":"researcher@example.org"}]`))
	})

	res, err := proj.ExportUsers(context.Background(), ExportUsersOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
}

func TestExportReport(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "report", r.PostFormValue("content"))
		assert.Equal(t, "42", r.PostFormValue("report_id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"study_id":"1","age":"30"}]`))
	})

	res, err := proj.ExportReport(context.Background(), "42", ExportReportOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	_, err = proj.ExportReport(context.Background(), "", ExportReportOptions{})
	var ue *UsageError
	assert.ErrorAs(t, err, &ue)
}

func TestExportProjectInfo(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "project", r.PostFormValue("content"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"project_id":123,"project_title":"Demo","is_longitudinal":1}`))
	})

	res, err := proj.ExportProjectInfo(context.Background(), ExportProjectInfoOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1, "a bare object is wrapped into a single-element list")
	assert.Equal(t, "Demo", res.Records[0]["project_title"])
}

func TestIsLongitudinal(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.PostFormValue("content") {
		case "event":
			w.Write([]byte(`[{"unique_event_name":"baseline_arm_1"}]`))
		case "arm":
			w.Write([]byte(`[{"arm_num":"1"}]`))
		}
	})

	long, err := proj.IsLongitudinal(context.Background())
	require.NoError(t, err)
	assert.True(t, long)
}

func TestIsLongitudinalDisabledFeature(t *testing.T) {
	proj := newTestProject(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"You cannot export events for classic projects"}`))
	})

	long, err := proj.IsLongitudinal(context.Background())
	require.NoError(t, err, "a service-side rejection means not longitudinal")
	assert.False(t, long)
}
