package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civilog/civilog-cli/internal/client/models"
	"github.com/civilog/civilog-cli/internal/common"
	"github.com/civilog/civilog-cli/internal/logging"
)

func reportPayload(assets []string) models.ReportPayload {
	if assets == nil {
		assets = []string{}
	}
	return models.ReportPayload{AssetIds: assets}
}

type staticTokens string

func (s staticTokens) AccessToken(context.Context) (string, error) {
	return string(s), nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(srv.URL, 5*time.Second, logging.NewDefault())
	c.SetTokenSource(staticTokens("tok-123"))
	return c
}

func TestFetchProjects_SendsBearerAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/mobile/projects", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"projects":[{"id":"p1","name":"Torre Norte"}]}`))
	})

	projects, err := c.FetchProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Torre Norte", projects[0].Name)
}

func TestFetchProjects_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchProjects(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestFetchElements_PassesProjectID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "p7", r.URL.Query().Get("projectId"))
		_, _ = w.Write([]byte(`{"partidas":[{"id":"a","name":"A"}],"subpartidas":[],"conceptos":[],"subconceptos":[]}`))
	})

	el, err := c.FetchElements(context.Background(), "p7")
	require.NoError(t, err)
	require.Len(t, el.Partidas, 1)
}

func TestCreateReport_RoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/reports", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["projectId"])
		assert.Equal(t, "concepto", body["type"])

		payload, ok := body["payload"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []any{"asset-1"}, payload["assetIds"])

		_, _ = w.Write([]byte(`{"id":"r-9","message":"Reporte creado"}`))
	})

	res, err := c.CreateReport(context.Background(), CreateReportParams{
		ProjectID: "p1",
		Type:      "concepto",
		Name:      "Losa",
		Payload:   reportPayload([]string{"asset-1"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "r-9", res.ID)
	assert.Equal(t, "Reporte creado", res.Message)
}

func TestCreateReport_NonOKCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateReport(context.Background(), CreateReportParams{Payload: reportPayload(nil)})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestUploadMedia_MultipartForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/mobile/media/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Torre Norte", r.FormValue("projectName"))
		assert.Equal(t, "/Colado de losa", r.FormValue("elementName"))
		assert.Equal(t, "Cimentación / Excavación", r.FormValue("hierarchyPath"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "a.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg-bytes"), data)

		_, _ = w.Write([]byte(`{"success":true,"message":"ok","assetId":"asset-7","description":""}`))
	})

	res, err := c.UploadMedia(context.Background(), UploadMediaParams{
		Data:          []byte("jpeg-bytes"),
		FileName:      "a.jpg",
		MimeType:      "image/jpeg",
		ProjectName:   "Torre Norte",
		ElementName:   "/Colado de losa",
		HierarchyPath: "Cimentación / Excavación",
	})
	require.NoError(t, err)
	assert.Equal(t, "asset-7", res.AssetID)
}

func TestUploadMedia_OmitsEmptyHierarchyPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, present := r.MultipartForm.Value["hierarchyPath"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"success":true,"assetId":"a"}`))
	})

	_, err := c.UploadMedia(context.Background(), UploadMediaParams{
		Data: []byte("x"), FileName: "x.jpg", MimeType: "image/jpeg",
		ProjectName: "P", ElementName: "/x",
	})
	require.NoError(t, err)
}

func TestUploadMedia_RejectedByServer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"archivo demasiado grande"}`))
	})

	_, err := c.UploadMedia(context.Background(), UploadMediaParams{
		Data: []byte("x"), FileName: "x.jpg", MimeType: "image/jpeg",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archivo demasiado grande")
}

func TestUploadMedia_CancelledContextAborts(t *testing.T) {
	started := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		// The server only watches for client disconnect (which cancels
		// r.Context()) once the request body has been consumed.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.UploadMedia(ctx, UploadMediaParams{
		Data: []byte("x"), FileName: "x.jpg", MimeType: "image/jpeg",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoginAndRefresh(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/jwt":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "u@example.com", body["email"])
			_, _ = w.Write([]byte(`{"access_token":"a1","refresh_token":"r1"}`))
		case "/api/jwt/refresh":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "r1", body["refresh_token"])
			_, _ = w.Write([]byte(`{"access_token":"a2","refresh_token":"r2"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	pair, err := c.Login(context.Background(), "u@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a1", pair.AccessToken)

	pair, err = c.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", pair.AccessToken)
	assert.Equal(t, "r2", pair.RefreshToken)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.Ping(context.Background()))

	down := New("http://127.0.0.1:1", time.Second, logging.NewDefault())
	err := down.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrOffline)
}
