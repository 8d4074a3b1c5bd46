package router_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"photopass/internal/config"
	"photopass/internal/domain"
	"photopass/internal/handler"
	"photopass/internal/metrics"
	"photopass/internal/middleware"
	"photopass/internal/router"
	"photopass/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	engine     *gin.Engine
	upload     *mocks.MockUploadService
	conversion *mocks.MockConversionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	uploadSvc := new(mocks.MockUploadService)
	conversionSvc := new(mocks.MockConversionService)

	cors, err := middleware.CORS([]string{"*"}, router.UploadPath)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)
	collector.ObserveProbe(domain.ProbeNotFound)

	engine := router.Setup(
		handler.NewUploadHandler(uploadSvc, &config.UploadConfig{MaxFileSizeMB: 20, MemoryLimitMB: 8}),
		handler.NewConversionHandler(conversionSvc),
		handler.NewHealthHandler(handler.PingerFunc(func(context.Context) error { return nil })),
		router.Options{
			CORS:        cors,
			Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			MetricsPath: "/metrics",
			Swagger:     true,
		},
	)
	return &fixture{engine: engine, upload: uploadSvc, conversion: conversionSvc}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRouter_UploadRoute(t *testing.T) {
	f := newFixture(t)
	f.upload.On("Upload", mock.Anything, mock.AnythingOfType("service.UploadInput")).
		Return(&domain.UploadResult{OriginalName: "me.png", Key: "1-me.png", URL: "https://u/1-me.png"}, nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "me.png")
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Origin", "https://photos.example.com")
	w := f.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"originalname":"me.png","key":"1-me.png","url":"https://u/1-me.png"}`, w.Body.String())
}

func TestRouter_UploadPreflight(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodOptions, "/api/upload", http.NoBody)
	w := f.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestRouter_UploadBrowserPreflightUsesRouteHeaders(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodOptions, "/api/upload", http.NoBody)
	req.Header.Set("Origin", "https://photos.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := f.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestRouter_UploadRejectsOtherMethods(t *testing.T) {
	f := newFixture(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		req, _ := http.NewRequest(method, "/api/upload", http.NoBody)
		w := f.do(req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, "POST, OPTIONS", w.Header().Get("Allow"), method)
		assert.JSONEq(t, `{"error":"Method `+method+` Not Allowed"}`, w.Body.String(), method)
	}
	f.upload.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestRouter_ConvertedRoutes(t *testing.T) {
	f := newFixture(t)
	f.conversion.On("Check", mock.Anything, "1-me.png").
		Return(&domain.ConversionStatus{Key: "1-me.png", URL: "https://c/1-me.png", Ready: true}, nil)
	f.conversion.On("Poll", mock.Anything, "1-me.png").
		Return(&domain.ConversionResult{Key: "1-me.png", URL: "https://c/1-me.png", Attempts: 1}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/converted?key=1-me.png", http.NoBody)
	w := f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"key":"1-me.png","url":"https://c/1-me.png","ready":true}`, w.Body.String())

	req, _ = http.NewRequest(http.MethodGet, "/api/converted/wait?key=1-me.png", http.NoBody)
	w = f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"key":"1-me.png","url":"https://c/1-me.png","attempts":1}`, w.Body.String())
}

func TestRouter_OperationalRoutes(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		assert.Equal(t, http.StatusOK, f.do(req).Code, path)
	}

	req, _ := http.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "photopass_probe")

	req, _ = http.NewRequest(http.MethodGet, "/swagger/doc.json", http.NoBody)
	w = f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/converted/wait"`)
}
