package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/api"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) AuditSubscription(
	ctx context.Context,
	subscriptionID string,
	inventory []domain.InventoryResource,
) (domain.AuditReport, error) {
	args := m.Called(ctx, subscriptionID, inventory)
	return args.Get(0).(domain.AuditReport), args.Error(1)
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	generatedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	inventory := []domain.InventoryResource{
		{ID: "/subscriptions/sub-1/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm-1", Name: "vm-1", Class: domain.WorkloadVM},
	}
	report := domain.AuditReport{
		Subscription: "sub-1",
		GeneratedAt:  generatedAt,
		Vaults: []domain.VaultPosture{{
			ID:            "/subscriptions/sub-1/resourceGroups/rg/providers/Microsoft.RecoveryServices/vaults/vault-1",
			Name:          "vault-1",
			Subscription:  "sub-1",
			ResourceGroup: "rg",
			SoftDelete:    domain.SoftDeleteEnabled,
			SecurityLevel: domain.SecurityLevelEnhanced,
		}},
		Coverage: []domain.CoverageRecord{{
			Resource:  inventory[0],
			Protected: false,
		}},
		Findings: []domain.Finding{{
			ID:       "vm-1_unprotected",
			Severity: domain.SeverityHigh,
			Category: "coverage",
			Resource: domain.ResourceDef{Platform: "Azure", Service: "VM", Name: "vm-1"},
			Detail:   "vm-1 is not enrolled in any backup vault.",
		}},
		Summary: map[string]any{},
	}

	mockAud := new(mockAuditor)
	mockAud.On("AuditSubscription", mock.Anything, "sub-1", inventory).
		Return(report, nil)

	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Auditor:       mockAud,
			Subscriptions: []string{"sub-1"},
			Inventory:     inventory,
		},
	}
	router := ConfigureRouter(logger, config)
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "ListSubscriptions",
			path:           "/api/v1/subscriptions",
			expectedStatus: http.StatusOK,
			expected:       []api.Subscription{{Id: "sub-1"}},
			parseResponse:  unmarshalResponse[[]api.Subscription](),
		},
		{
			name:           "GetVaults",
			path:           "/api/v1/subscriptions/sub-1/vaults",
			expectedStatus: http.StatusOK,
			expected: []api.VaultPosture{{
				Id:            "/subscriptions/sub-1/resourceGroups/rg/providers/Microsoft.RecoveryServices/vaults/vault-1",
				Name:          "vault-1",
				Subscription:  "sub-1",
				ResourceGroup: "rg",
				SoftDelete:    "Enabled",
				SecurityLevel: "Enhanced",
			}},
			parseResponse: unmarshalResponse[[]api.VaultPosture](),
		},
		{
			name:           "GetCoverage",
			path:           "/api/v1/subscriptions/sub-1/coverage",
			expectedStatus: http.StatusOK,
			expected: []api.CoverageRecord{{
				ResourceId:   "/subscriptions/sub-1/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm-1",
				ResourceName: "vm-1",
				Class:        "VM",
				Protected:    false,
			}},
			parseResponse: unmarshalResponse[[]api.CoverageRecord](),
		},
		{
			name:           "GetFindings",
			path:           "/api/v1/subscriptions/sub-1/findings",
			expectedStatus: http.StatusOK,
			expected: []api.Finding{{
				Id:       "vm-1_unprotected",
				Severity: api.SeverityHigh,
				Category: "coverage",
				Resource: api.ResourceDef{Platform: "Azure", Service: "VM", Name: "vm-1"},
				Detail:   "vm-1 is not enrolled in any backup vault.",
			}},
			parseResponse: unmarshalResponse[[]api.Finding](),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}

	// Four endpoint hits, one scan: the report cache absorbs the rest.
	mockAud.AssertNumberOfCalls(t, "AuditSubscription", 1)
}

func TestWebAPI_AuditFailure(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	mockAud := new(mockAuditor)
	mockAud.On("AuditSubscription", mock.Anything, "sub-err", mock.Anything).
		Return(domain.AuditReport{}, assert.AnError)

	router := ConfigureRouter(logger, Config{
		Dependencies: Dependencies{Auditor: mockAud, Subscriptions: []string{"sub-err"}},
	})
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	resp, err := http.Get(testServer.URL + "/api/v1/subscriptions/sub-err/vaults")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return response, err
	}
}
