package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"invoicehub/internal/billing"
	"invoicehub/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReportRouter() (*mockReportService, *mockStatsService, http.Handler) {
	reports := &mockReportService{}
	stats := &mockStatsService{}
	return reports, stats, newTestRouter(testOwner, NewReportHandler(reports, stats))
}

func TestReportHandler_QueryParameters(t *testing.T) {
	testCases := []struct {
		name          string
		path          string
		setup         func(m *mockReportService)
		expectedCode  int
		expectedField string
	}{
		{
			name: "revenue_months_forwarded",
			path: "/api/reports/revenue?months=6",
			setup: func(m *mockReportService) {
				m.On("RevenueByMonth", mock.Anything, testOwner, 6).Return([]billing.MonthlyRevenue{}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "revenue_without_months_uses_default",
			path: "/api/reports/revenue",
			setup: func(m *mockReportService) {
				m.On("RevenueByMonth", mock.Anything, testOwner, 0).Return([]billing.MonthlyRevenue{}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "non_numeric_months_rejected",
			path:          "/api/reports/revenue?months=six",
			setup:         func(m *mockReportService) {},
			expectedCode:  http.StatusBadRequest,
			expectedField: "months",
		},
		{
			name: "service_range_error_surfaces",
			path: "/api/reports/clients?limit=-1",
			setup: func(m *mockReportService) {
				m.On("TopClients", mock.Anything, testOwner, -1).
					Return([]billing.ClientRollup(nil), &billing.ValidationError{Field: "limit", Message: "must not be negative"})
			},
			expectedCode:  http.StatusBadRequest,
			expectedField: "limit",
		},
		{
			name: "full_report_options",
			path: "/api/reports?months=3&limit=2",
			setup: func(m *mockReportService) {
				m.On("GetReport", mock.Anything, testOwner, billing.ReportOptions{Months: 3, TopClients: 2}).
					Return(billing.Report{}, nil)
			},
			expectedCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reports, _, r := newReportRouter()
			tc.setup(reports)

			w, env := perform(t, r, http.MethodGet, tc.path, nil)

			assert.Equal(t, tc.expectedCode, w.Code)
			if tc.expectedField != "" {
				require.Len(t, env.Details, 1)
				assert.Equal(t, tc.expectedField, env.Details[0].Field)
			}
			reports.AssertExpectations(t)
		})
	}
}

func TestReportHandler_Summary(t *testing.T) {
	reports, _, r := newReportRouter()
	reports.On("Summary", mock.Anything, testOwner).Return(billing.Summary{
		InvoiceCount: 4,
		Invoiced:     decimal.RequireFromString("265"),
		Paid:         decimal.RequireFromString("125"),
		Outstanding:  decimal.RequireFromString("140"),
	}, nil)

	w, env := perform(t, r, http.MethodGet, "/api/reports/summary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got billing.Summary
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 4, got.InvoiceCount)
	assert.True(t, got.Outstanding.Equal(decimal.NewFromInt(140)))
}

func TestReportHandler_ExportCSV(t *testing.T) {
	reports, _, r := newReportRouter()
	reports.On("ExportCSV", mock.Anything, testOwner, billing.ReportOptions{}, mock.Anything).Return(nil)

	w, _ := perform(t, r, http.MethodGet, "/api/reports/export.csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.csv")
	assert.Equal(t, "generated_at,2024-03-15\n", w.Body.String())
}

func TestReportHandler_RebuildClientStats(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		_, stats, r := newReportRouter()
		stats.On("RebuildOwner", mock.Anything, testOwner).Return(service.RebuildResult{Owners: 1, Clients: 3}, nil)

		w, env := perform(t, r, http.MethodPost, "/api/reports/rebuild-client-stats", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var got service.RebuildResult
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, 3, got.Clients)
	})

	t.Run("failure", func(t *testing.T) {
		_, stats, r := newReportRouter()
		stats.On("RebuildOwner", mock.Anything, testOwner).Return(service.RebuildResult{}, errors.New("db down"))

		w, _ := perform(t, r, http.MethodPost, "/api/reports/rebuild-client-stats", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTaxHandler(t *testing.T) {
	r := newTestRouter(testOwner, NewTaxHandler(service.NewTaxService()))

	testCases := []struct {
		name         string
		path         string
		expectedCode int
	}{
		{name: "list", path: "/api/tax/countries", expectedCode: http.StatusOK},
		{name: "known_country", path: "/api/tax/countries/DE", expectedCode: http.StatusOK},
		{name: "unknown_country", path: "/api/tax/countries/ZZ", expectedCode: http.StatusNotFound},
		{name: "malformed_code", path: "/api/tax/countries/DEU", expectedCode: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := perform(t, r, http.MethodGet, tc.path, nil)
			assert.Equal(t, tc.expectedCode, w.Code)
		})
	}

	_, env := perform(t, r, http.MethodGet, "/api/tax/countries/de", nil)
	var got billing.CountryTaxDefault
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Germany", got.Name)
	assert.True(t, got.Rate.Equal(decimal.NewFromInt(19)))
}
