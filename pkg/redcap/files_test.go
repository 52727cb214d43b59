package redcap

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileServer answers metadata exports with the test dictionary and file
// operations per action.
func fileServer(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			require.NoError(t, r.ParseMultipartForm(1<<20))
		} else {
			require.NoError(t, r.ParseForm())
		}

		switch r.FormValue("content") {
		case "metadata":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(testDictionary))
		case "file":
			switch r.FormValue("action") {
			case "export":
				w.Header().Set("Content-Type", `application/pdf; name="consent.pdf"`)
				w.Write([]byte("%PDF-1.4 fake"))
			case "import":
				file, header, err := r.FormFile("file")
				require.NoError(t, err)
				defer file.Close()
				assert.Equal(t, "consent.pdf", header.Filename)
				// Empty body on success.
			case "delete":
				// Empty body on success.
			}
		default:
			t.Errorf("unexpected content %q", r.FormValue("content"))
		}
	}
}

func TestExportFile(t *testing.T) {
	proj := newTestProject(t, fileServer(t))

	content, params, err := proj.ExportFile(context.Background(), "1", "consent_form", FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), content)
	assert.Equal(t, "consent.pdf", params["name"])
}

func TestImportFile(t *testing.T) {
	proj := newTestProject(t, fileServer(t))

	err := proj.ImportFile(context.Background(), "1", "consent_form", "consent.pdf",
		strings.NewReader("%PDF-1.4 fake"), FileOptions{Event: "baseline_arm_1"})
	require.NoError(t, err)
}

func TestDeleteFileEmptyBody(t *testing.T) {
	proj := newTestProject(t, fileServer(t))

	err := proj.DeleteFile(context.Background(), "1", "consent_form", FileOptions{})
	require.NoError(t, err, "an empty response body is success for file deletion")
}

func TestFileOperationsRejectNonFileFields(t *testing.T) {
	proj := newTestProject(t, fileServer(t))
	ctx := context.Background()

	var ue *UsageError

	_, _, err := proj.ExportFile(ctx, "1", "age", FileOptions{})
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Message, "not a file field")

	err = proj.ImportFile(ctx, "1", "undefined_field", "x.bin", strings.NewReader("x"), FileOptions{})
	require.ErrorAs(t, err, &ue)

	err = proj.DeleteFile(ctx, "1", "notes", FileOptions{})
	require.ErrorAs(t, err, &ue)
}
