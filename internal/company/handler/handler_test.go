package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"siret-api/internal/company/handler/mocks"
	"siret-api/internal/company/models"
	"siret-api/internal/company/service"
	"siret-api/internal/company/store"
	dErrors "siret-api/pkg/domain-errors"
	"siret-api/pkg/platform/sentinel"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,AccessLog

type accessEntry struct {
	host   string
	method string
	status int
	path   string
}

type recordingAccessLog struct {
	mu      sync.Mutex
	entries []accessEntry
}

func (l *recordingAccessLog) Record(host, method string, status int, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, accessEntry{host, method, status, path})
	return nil
}

func (l *recordingAccessLog) last() accessEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[len(l.entries)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RegistryScenarioSuite drives the full CRUD protocol through the router
// against the in-memory store.
type RegistryScenarioSuite struct {
	suite.Suite
	router    chi.Router
	accessLog *recordingAccessLog
}

func TestRegistryScenarioSuite(t *testing.T) {
	suite.Run(t, new(RegistryScenarioSuite))
}

func (s *RegistryScenarioSuite) SetupTest() {
	mem := store.NewInMemory()
	svc := service.New(mem, service.WithLogger(discardLogger()))
	s.Require().NoError(svc.EnsureIndexes(s.T().Context()))

	s.accessLog = &recordingAccessLog{}
	s.router = chi.NewRouter()
	New(svc, s.accessLog, discardLogger()).Register(s.router)
}

func (s *RegistryScenarioSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "127.0.0.1:50000"
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RegistryScenarioSuite) assertDetail(w *httptest.ResponseRecorder, status int, detail string) {
	s.Equal(status, w.Code)
	s.JSONEq(`{"detail":`+mustJSON(detail)+`}`, w.Body.String())
}

func mustJSON(v string) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func company(siret, siren, nic int64) map[string]any {
	return map[string]any{"siret": siret, "siren": siren, "nic": nic}
}

func (s *RegistryScenarioSuite) TestFullScenario() {
	w := s.do(http.MethodPost, "/", company(12345600789, 123456, 789))
	s.assertDetail(w, http.StatusOK, "The insertion proceed correctly")

	w = s.do(http.MethodPost, "/", company(12345600789, 123456, 789))
	s.assertDetail(w, http.StatusConflict, "A company with 12345600789 siret code already exists")

	inconsistent := "Inputs entered are not consistent. Siret must be composed of the siren number and the nic number."
	w = s.do(http.MethodPost, "/", company(123456780, 123456, 789))
	s.assertDetail(w, http.StatusBadRequest, inconsistent)

	w = s.do(http.MethodPost, "/", company(141234567800789, 1412345678, 789))
	s.assertDetail(w, http.StatusBadRequest, inconsistent)

	w = s.do(http.MethodGet, "/get?siret=12345600789", nil)
	s.Equal(http.StatusOK, w.Code)
	var records []map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &records))
	s.Require().Len(records, 1)
	s.Equal("12345600789", records[0]["siret"])
	s.Equal("123456", records[0]["siren"])
	s.Equal("789", records[0]["nic"])
	s.NotContains(records[0], "_id")

	w = s.do(http.MethodGet, "/get?siret=987654321", nil)
	s.assertDetail(w, http.StatusNotFound, "Siret code : 987654321 -> not found")

	w = s.do(http.MethodPut, "/12345600789", map[string]any{"etablissementSiege": "Paris"})
	s.assertDetail(w, http.StatusOK, "The update proceed correctly")

	w = s.do(http.MethodGet, "/get?siret=12345600789", nil)
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &records))
	s.Equal("Paris", records[0]["etablissementSiege"])
	s.Equal("12345600789", records[0]["siret"])

	w = s.do(http.MethodPut, "/987654321", map[string]any{"etablissementSiege": "Paris"})
	s.assertDetail(w, http.StatusNotFound, "The corporate with 987654321 siret code doesn't exist")

	w = s.do(http.MethodDelete, "/delete/12345600789", nil)
	s.assertDetail(w, http.StatusOK, "The deletion proceed correctly")

	w = s.do(http.MethodDelete, "/delete/987654321", nil)
	s.assertDetail(w, http.StatusNotFound, "The corporate with 987654321 siret code doesn't exist")

	w = s.do(http.MethodGet, "/get?siret=12345600789", nil)
	s.Equal(http.StatusNotFound, w.Code)

	s.Len(s.accessLog.entries, 12, "every request is access logged")
}

func (s *RegistryScenarioSuite) TestFetchKeepsFieldOrder() {
	s.do(http.MethodPost, "/", company(12345600789, 123456, 789))

	w := s.do(http.MethodGet, "/get?siret=12345600789", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(strings.HasPrefix(w.Body.String(), `[{"siret":"12345600789","siren":"123456","nic":"789",`), w.Body.String())
}

func (s *RegistryScenarioSuite) TestAccessLogEntries() {
	s.do(http.MethodPost, "/", company(12345600789, 123456, 789))
	s.Equal(accessEntry{"127.0.0.1", http.MethodPost, http.StatusOK, "/"}, s.accessLog.last())

	s.do(http.MethodPost, "/", company(12345600789, 123456, 789))
	s.Equal(http.StatusConflict, s.accessLog.last().status)

	s.do(http.MethodDelete, "/delete/abc", nil)
	s.Equal(accessEntry{"127.0.0.1", http.MethodDelete, http.StatusUnprocessableEntity, "/delete/abc"}, s.accessLog.last())
}

func (s *RegistryScenarioSuite) TestAccessLogHostIsThePeer() {
	req := httptest.NewRequest(http.MethodGet, "/get?siret=1", nil)
	req.RemoteAddr = "198.51.100.9:40000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("X-Real-IP", "203.0.113.8")
	s.router.ServeHTTP(httptest.NewRecorder(), req)

	s.Equal("198.51.100.9", s.accessLog.last().host)
}

func (s *RegistryScenarioSuite) TestMalformedInput() {
	cases := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"non-integer query siret", http.MethodGet, "/get?siret=abc", ""},
		{"missing query siret", http.MethodGet, "/get", ""},
		{"negative query siret", http.MethodGet, "/get?siret=-1", ""},
		{"non-integer path siret", http.MethodPut, "/abc", `{}`},
		{"malformed json", http.MethodPost, "/", `{"siret":`},
		{"empty body", http.MethodPost, "/", ``},
		{"missing identity", http.MethodPost, "/", `{"siret":12345600789,"siren":123456}`},
		{"negative identity", http.MethodPost, "/", `{"siret":12345600789,"siren":-123456,"nic":789}`},
		{"identity as text", http.MethodPost, "/", `{"siret":"12345600789","siren":123456,"nic":789}`},
		{"attribute of wrong type", http.MethodPut, "/12345600789", `{"codePostalEtablissement":{}}`},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			s.Equal(http.StatusUnprocessableEntity, w.Code)
			var body map[string]string
			s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
			s.NotEmpty(body["detail"])
		})
	}
}

func (s *RegistryScenarioSuite) TestNullAttributesAreStoredEmpty() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"siret":12345600789,"siren":123456,"nic":789,"etablissementSiege":null,"unknownField":"x"}`)))
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/get?siret=12345600789", nil)
	var records []map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &records))
	s.Equal("", records[0]["etablissementSiege"])
	s.NotContains(records[0], "unknownField")
}

func TestHandlerMapsServiceErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	accessLog := mocks.NewMockAccessLog(ctrl)
	r := chi.NewRouter()
	New(svc, accessLog, discardLogger()).Register(r)

	t.Run("lookup failure is a bare 500", func(t *testing.T) {
		svc.EXPECT().Fetch(gomock.Any(), int64(1)).
			Return(nil, dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeInternal, "Internal Server Error"))
		accessLog.EXPECT().Record(gomock.Any(), http.MethodGet, http.StatusInternalServerError, "/get").Return(nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get?siret=1", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"detail":"Internal Server Error"}`, w.Body.String())
	})

	t.Run("persistence failure is a 400", func(t *testing.T) {
		svc.EXPECT().Delete(gomock.Any(), int64(5)).
			Return(dErrors.New(dErrors.CodePersistence, "The deletion doesn't work"))
		accessLog.EXPECT().Record(gomock.Any(), http.MethodDelete, http.StatusBadRequest, "/delete/5").Return(nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/delete/5", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"detail":"The deletion doesn't work"}`, w.Body.String())
	})

	t.Run("update passes the attributes through", func(t *testing.T) {
		svc.EXPECT().Update(gomock.Any(), int64(12345600789), models.Attributes{CodePostal: "75001"}).Return(nil)
		accessLog.EXPECT().Record(gomock.Any(), http.MethodPut, http.StatusOK, "/12345600789").Return(nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/12345600789",
			strings.NewReader(`{"siret":1,"codePostalEtablissement":"75001"}`)))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("access log failure does not change the response", func(t *testing.T) {
		svc.EXPECT().Fetch(gomock.Any(), int64(2)).Return([]models.Rendered{models.Render(models.Document{"siret": int64(2)})}, nil)
		accessLog.EXPECT().Record(gomock.Any(), gomock.Any(), http.StatusOK, gomock.Any()).Return(errors.New("disk full"))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get?siret=2", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"siret":"2"}]`, w.Body.String())
	})
}
