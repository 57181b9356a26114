package company_test

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siret-api/internal/company"
	"siret-api/internal/company/store"
	httptransport "siret-api/internal/transport/http"
	"siret-api/pkg/platform/middleware/request"
	"siret-api/pkg/testutil"
)

func TestRegistryWiring(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logFile := filepath.Join(t.TempDir(), "access.log")

	testutil.Given(t, "a router serving an in-memory registry", func(t *testing.T) {
		svc := company.NewService(store.NewInMemory(), company.WithLogger(logger))
		router := httptransport.NewRouter(httptransport.Deps{Logger: logger},
			company.NewHandler(svc, logFile, logger))

		testutil.When(t, "an establishment is created", func(t *testing.T) {
			req := testutil.NewRequestWithBody(t, http.MethodPost, "/",
				`{"siret": 12345678900011, "siren": 123456789, "nic": 11, "libelleCommuneEtablissement": "PARIS"}`)
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the insertion is confirmed", func(t *testing.T) {
				testutil.AssertStatusAndDetail(t, rr, http.StatusOK, company.MsgInserted)
			})
		})

		testutil.When(t, "it is fetched back", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/get?siret=12345678900011"))

			testutil.Then(t, "the stored attributes are rendered", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.Contains(t, rr.Body.String(), `"libelleCommuneEtablissement":"PARIS"`)
			})
		})

		testutil.When(t, "its commune is amended", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPut, "/12345678900011",
				map[string]string{"libelleCommuneEtablissement": "LYON"})
			rr := testutil.DoRequest(router, testutil.WithRequestID(req, "req-update"))

			testutil.Then(t, "the update is confirmed", func(t *testing.T) {
				testutil.AssertStatusAndDetail(t, rr, http.StatusOK, company.MsgUpdated)
				assert.Equal(t, "req-update", rr.Header().Get(request.HeaderRequestID))
			})
		})

		testutil.When(t, "an unknown siret is fetched", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/get?siret=1"))

			testutil.Then(t, "it is not found", func(t *testing.T) {
				testutil.AssertStatusAndDetail(t, rr, http.StatusNotFound, "Siret code : 1 -> not found")
			})
		})

		testutil.Then(t, "every request reached the access log", func(t *testing.T) {
			raw, err := os.ReadFile(logFile)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
			assert.Len(t, lines, 4)
		})
	})
}
