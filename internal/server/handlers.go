package server

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
	"github.com/p1nka/cbuae-dormancy/internal/export"
	"github.com/p1nka/cbuae-dormancy/internal/schema"
	"github.com/p1nka/cbuae-dormancy/internal/service"
	"github.com/p1nka/cbuae-dormancy/internal/store"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.ComplianceService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.ComplianceService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) handleScans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.runScan(w, r)
	case http.MethodGet:
		h.listScans(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// runScan accepts a dataset as a raw CSV body or as the multipart field
// "file", classifies it, and returns the report in the requested format.
func (h *APIHandlers) runScan(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "pdf" {
		writeError(w, http.StatusBadRequest, "format must be json, csv, or pdf")
		return
	}

	var asOfPtr *time.Time
	if v := r.URL.Query().Get("asOf"); v != "" {
		asOf, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid asOf date, expected YYYY-MM-DD")
			return
		}
		asOfPtr = &asOf
	}

	dataset, err := datasetReader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer dataset.Close()

	result, err := h.service.RunScan(r.Context(), dataset, asOfPtr)
	if err != nil {
		status, msg := scanErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("scan failed", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	h.logger.Info("scan completed",
		"scanId", result.ID,
		"records", result.Report.Summary.TotalRecords,
		"dormant", result.Report.Summary.DormantCount,
	)

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="dormant_accounts.csv"`)
		w.Header().Set("X-Scan-Id", result.ID)
		if err := export.WriteDormantCSV(w, result.Report); err != nil {
			h.logger.Error("failed to stream dormant csv", "error", err, "scanId", result.ID)
		}
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="dormancy_summary.pdf"`)
		w.Header().Set("X-Scan-Id", result.ID)
		if err := export.WriteSummaryPDF(w, result.Report); err != nil {
			h.logger.Error("failed to stream summary pdf", "error", err, "scanId", result.ID)
		}
	default:
		respondJSON(w, http.StatusCreated, scanResponseFrom(result))
	}
}

func (h *APIHandlers) listScans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 20)
	offset := parseInt(query.Get("offset"), 0)

	result, err := h.service.ListScans(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list scans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}

	resp := listScansResponse{
		Total: result.Total,
		Scans: []scanRecordResponse{},
	}
	for _, record := range result.Scans {
		resp.Scans = append(resp.Scans, recordResponseFrom(record))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleScanByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	scanID := strings.TrimPrefix(r.URL.Path, "/scans/")
	scanID = strings.Trim(scanID, "/")
	if scanID == "" {
		writeError(w, http.StatusBadRequest, "scan ID is required")
		return
	}

	record, err := h.service.GetScan(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, store.ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		h.logger.Error("failed to fetch scan", "error", err, "scanId", scanID)
		writeError(w, http.StatusInternalServerError, "failed to fetch scan")
		return
	}

	respondJSON(w, http.StatusOK, recordResponseFrom(record))
}

// handleAccountFlag serves /accounts/{id}/flag: the current dormancy standing
// of one account.
func (h *APIHandlers) handleAccountFlag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/accounts/")
	accountID, ok := strings.CutSuffix(strings.Trim(rest, "/"), "/flag")
	if !ok || accountID == "" {
		writeError(w, http.StatusBadRequest, "account ID is required")
		return
	}

	flag, err := h.service.AccountFlag(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrFlagNotFound) {
			writeError(w, http.StatusNotFound, "account has no dormancy flag")
			return
		}
		h.logger.Error("failed to fetch account flag", "error", err, "accountId", accountID)
		writeError(w, http.StatusInternalServerError, "failed to fetch account flag")
		return
	}

	respondJSON(w, http.StatusOK, flagResponseFrom(flag))
}

func (h *APIHandlers) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	entries, err := h.service.DormantLedger(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch dormant ledger", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch dormant ledger")
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="dormant_ledger.csv"`)
		if err := export.WriteLedgerCSV(w, entries); err != nil {
			h.logger.Error("failed to stream ledger csv", "error", err)
		}
		return
	}

	resp := ledgerResponse{Entries: []ledgerEntryResponse{}}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, ledgerEntryResponse{
			AccountID:      entry.AccountID,
			ScanID:         entry.ScanID,
			Classification: entry.Classification,
			MovedAt:        formatTime(entry.MovedAt),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleContactAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	dataset, err := datasetReader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer dataset.Close()

	report, err := h.service.ContactAudit(dataset)
	if err != nil {
		status, msg := scanErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("contact audit failed", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="contact_audit.csv"`)
		if err := export.WriteContactAuditCSV(w, report); err != nil {
			h.logger.Error("failed to stream contact audit csv", "error", err)
		}
		return
	}

	resp := contactAuditResponse{
		Total:   report.Total,
		Passed:  report.Passed,
		Entries: []contactAuditEntryResponse{},
	}
	for _, entry := range report.Entries {
		resp.Entries = append(resp.Entries, contactAuditEntryResponse{
			AccountID:    entry.AccountID,
			ChannelsUsed: entry.ChannelsUsed,
			Passed:       entry.Passed,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleTransferEligibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	dataset, err := datasetReader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer dataset.Close()

	report, err := h.service.TransferReport(dataset)
	if err != nil {
		status, msg := scanErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("transfer report failed", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transfer_eligibility.csv"`)
		if err := export.WriteTransferCSV(w, report); err != nil {
			h.logger.Error("failed to stream transfer csv", "error", err)
		}
		return
	}

	resp := transferResponse{
		Cutoff:     report.Cutoff.Format(time.DateOnly),
		Total:      report.Total,
		Eligible:   report.Eligible,
		Candidates: []transferCandidateResponse{},
	}
	for _, candidate := range report.Candidates {
		resp.Candidates = append(resp.Candidates, transferCandidateResponse{
			AccountID:           candidate.Account.AccountID,
			LastTransactionDate: formatDatePtr(candidate.Account.LastTransaction),
			Balance:             formatNullDecimal(candidate.Account.Balance),
			Status:              candidate.Status,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleFreezeCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	dataset, err := datasetReader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer dataset.Close()

	report, err := h.service.FreezeReport(dataset)
	if err != nil {
		status, msg := scanErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("freeze report failed", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="freeze_candidates.csv"`)
		if err := export.WriteFreezeCSV(w, report); err != nil {
			h.logger.Error("failed to stream freeze csv", "error", err)
		}
		return
	}

	resp := freezeResponse{
		Cutoff:     report.Cutoff.Format(time.DateOnly),
		Total:      report.Total,
		Frozen:     report.Frozen,
		Candidates: []freezeCandidateResponse{},
	}
	for _, candidate := range report.Candidates {
		resp.Candidates = append(resp.Candidates, freezeCandidateResponse{
			AccountID:           candidate.Account.AccountID,
			AccountStatus:       candidate.Account.Status,
			KYCStatus:           candidate.Account.KYCStatus,
			LastTransactionDate: formatDatePtr(candidate.Account.LastTransaction),
			Reason:              candidate.Reason,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// --- Request & Response DTOs ---

type scanResponse struct {
	ScanID          string                   `json:"scanId"`
	CreatedAt       string                   `json:"createdAt"`
	AsOf            string                   `json:"asOf"`
	ThresholdYears  int                      `json:"thresholdYears"`
	Summary         summaryResponse          `json:"summary"`
	Diagnostics     []diagnosticResponse     `json:"diagnostics"`
	FlaggedAccounts []flaggedAccountResponse `json:"flaggedAccounts"`
}

type summaryResponse struct {
	TotalRecords        int                  `json:"totalRecords"`
	DormantCount        int                  `json:"dormantCount"`
	UnknownAccountTypes int                  `json:"unknownAccountTypes"`
	Message             string               `json:"message"`
	TriggerCounts       map[string]int       `json:"triggerCounts"`
	DormantBalance      string               `json:"dormantBalance"`
	BranchStats         []branchStatResponse `json:"branchStats"`
}

type branchStatResponse struct {
	Branch   string `json:"branch"`
	Accounts int    `json:"accounts"`
	Balance  string `json:"balance"`
}

type diagnosticResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type flaggedAccountResponse struct {
	AccountID   string `json:"accountId"`
	AccountType string `json:"accountType"`
	Category    string `json:"category"`
	Trigger     string `json:"trigger"`
	AnchorDate  string `json:"anchorDate"`
	Reason      string `json:"reason"`
	Branch      string `json:"branch,omitempty"`
	Balance     string `json:"balance,omitempty"`
	SourceRow   int    `json:"sourceRow"`
}

type listScansResponse struct {
	Scans []scanRecordResponse `json:"scans"`
	Total int                  `json:"total"`
}

type scanRecordResponse struct {
	ScanID       string               `json:"scanId"`
	CreatedAt    string               `json:"createdAt"`
	AsOf         string               `json:"asOf"`
	TotalRecords int                  `json:"totalRecords"`
	DormantCount int                  `json:"dormantCount"`
	Diagnostics  []diagnosticResponse `json:"diagnostics"`
	Flags        []flagResponse       `json:"flags,omitempty"`
}

type flagResponse struct {
	AccountID   string `json:"accountId"`
	ScanID      string `json:"scanId"`
	Trigger     string `json:"trigger"`
	AnchorDate  string `json:"anchorDate"`
	Instruction string `json:"instruction"`
	Reason      string `json:"reason"`
	FlaggedAt   string `json:"flaggedAt"`
}

type ledgerResponse struct {
	Entries []ledgerEntryResponse `json:"entries"`
}

type ledgerEntryResponse struct {
	AccountID      string `json:"accountId"`
	ScanID         string `json:"scanId"`
	Classification string `json:"classification"`
	MovedAt        string `json:"movedAt"`
}

type contactAuditResponse struct {
	Total   int                         `json:"total"`
	Passed  int                         `json:"passed"`
	Entries []contactAuditEntryResponse `json:"entries"`
}

type contactAuditEntryResponse struct {
	AccountID    string   `json:"accountId"`
	ChannelsUsed []string `json:"channelsUsed"`
	Passed       bool     `json:"passed"`
}

type transferResponse struct {
	Cutoff     string                      `json:"cutoff"`
	Total      int                         `json:"total"`
	Eligible   int                         `json:"eligible"`
	Candidates []transferCandidateResponse `json:"candidates"`
}

type transferCandidateResponse struct {
	AccountID           string `json:"accountId"`
	LastTransactionDate string `json:"lastTransactionDate"`
	Balance             string `json:"balance,omitempty"`
	Status              string `json:"status"`
}

type freezeResponse struct {
	Cutoff     string                    `json:"cutoff"`
	Total      int                       `json:"total"`
	Frozen     int                       `json:"frozen"`
	Candidates []freezeCandidateResponse `json:"candidates"`
}

type freezeCandidateResponse struct {
	AccountID           string `json:"accountId"`
	AccountStatus       string `json:"accountStatus"`
	KYCStatus           string `json:"kycStatus"`
	LastTransactionDate string `json:"lastTransactionDate"`
	Reason              string `json:"reason"`
}

// --- DTO mapping ---

func scanResponseFrom(result service.ScanResult) scanResponse {
	report := result.Report
	resp := scanResponse{
		ScanID:          result.ID,
		CreatedAt:       formatTime(result.CreatedAt),
		AsOf:            report.AsOf.Format(time.DateOnly),
		ThresholdYears:  report.ThresholdYears,
		Diagnostics:     diagnosticsFrom(report.Diagnostics),
		FlaggedAccounts: []flaggedAccountResponse{},
	}

	triggerCounts := make(map[string]int, len(report.Summary.TriggerCounts))
	for kind, count := range report.Summary.TriggerCounts {
		triggerCounts[string(kind)] = count
	}
	branchStats := make([]branchStatResponse, 0, len(report.Summary.BranchStats))
	for _, stat := range report.Summary.BranchStats {
		branchStats = append(branchStats, branchStatResponse{
			Branch:   stat.Branch,
			Accounts: stat.Accounts,
			Balance:  stat.Balance.StringFixed(2),
		})
	}
	resp.Summary = summaryResponse{
		TotalRecords:        report.Summary.TotalRecords,
		DormantCount:        report.Summary.DormantCount,
		UnknownAccountTypes: report.Summary.UnknownTypeCount,
		Message:             report.Summary.Message,
		TriggerCounts:       triggerCounts,
		DormantBalance:      report.Summary.DormantBalance.StringFixed(2),
		BranchStats:         branchStats,
	}

	for _, flagged := range report.Flagged {
		resp.FlaggedAccounts = append(resp.FlaggedAccounts, flaggedAccountResponse{
			AccountID:   flagged.Account.AccountID,
			AccountType: flagged.Account.AccountType,
			Category:    string(flagged.Account.Category),
			Trigger:     string(flagged.Verdict.Trigger),
			AnchorDate:  formatDatePtr(flagged.Verdict.AnchorDate),
			Reason:      flagged.Verdict.Reason,
			Branch:      flagged.Account.Branch,
			Balance:     formatNullDecimal(flagged.Account.Balance),
			SourceRow:   flagged.Account.SourceRow,
		})
	}
	return resp
}

func recordResponseFrom(record domain.ScanRecord) scanRecordResponse {
	resp := scanRecordResponse{
		ScanID:       record.ID,
		CreatedAt:    formatTime(record.CreatedAt),
		AsOf:         record.AsOf.Format(time.DateOnly),
		TotalRecords: record.TotalRecords,
		DormantCount: record.DormantCount,
		Diagnostics:  diagnosticsFrom(record.Diagnostics),
	}
	for _, flag := range record.Flags {
		resp.Flags = append(resp.Flags, flagResponseFrom(flag))
	}
	return resp
}

func flagResponseFrom(flag domain.FlagRecord) flagResponse {
	return flagResponse{
		AccountID:   flag.AccountID,
		ScanID:      flag.ScanID,
		Trigger:     string(flag.Trigger),
		AnchorDate:  formatDatePtr(flag.AnchorDate),
		Instruction: flag.Instruction,
		Reason:      flag.Reason,
		FlaggedAt:   formatTime(flag.FlaggedAt),
	}
}

func diagnosticsFrom(diagnostics []domain.Diagnostic) []diagnosticResponse {
	out := make([]diagnosticResponse, 0, len(diagnostics))
	for _, d := range diagnostics {
		out = append(out, diagnosticResponse{Code: string(d.Code), Message: d.Message})
	}
	return out
}

// --- Helpers ---

func datasetReader(r *http.Request) (io.ReadCloser, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, errors.New("invalid multipart form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New(`multipart field "file" is required`)
		}
		return file, nil
	}
	if r.Body == nil {
		return nil, errors.New("request body is required")
	}
	return r.Body, nil
}

// scanErrorStatus maps scan failures onto HTTP statuses: malformed input is
// the caller's problem, anything else is ours.
func scanErrorStatus(err error) (int, string) {
	if errors.Is(err, schema.ErrEmptyDataset) {
		return http.StatusBadRequest, "dataset has no header row"
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return http.StatusBadRequest, "dataset is not valid CSV: " + parseErr.Error()
	}
	return http.StatusInternalServerError, "scan failed"
}

func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "csv")
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDatePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
