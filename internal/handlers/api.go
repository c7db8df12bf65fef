// Package handlers maps HTTP requests onto the transaction service and
// shapes the JSON responses.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/query"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/store"
)

type TransactionHandlers struct {
	service *services.TransactionService
	logger  *slog.Logger
}

func NewTransactionHandlers(service *services.TransactionService, logger *slog.Logger) *TransactionHandlers {
	return &TransactionHandlers{
		service: service,
		logger:  logger,
	}
}

// listResponse is the flat page envelope the table endpoints return. The
// embedded page flattens into the top level next to success.
type listResponse struct {
	Success bool `json:"success"`
	models.PageResult
}

// searchResponse additionally echoes the filters that were applied.
type searchResponse struct {
	Success bool `json:"success"`
	models.PageResult
	Filters query.Criteria `json:"filters"`
}

// HandleList serves the unfiltered table page. Page parameters are
// lenient here: anything unparsable falls back to defaults.
func (h *TransactionHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.ListPage(r.Context(), page, limit)
	if err != nil {
		errors.WriteErrorWith(w, h.logger,
			errors.StoreUnavailable(err, "Transaction data is unavailable"),
			requestID, models.EmptyPage(limit))
		return
	}

	writeJSON(w, listResponse{Success: true, PageResult: result})
}

// HandleSearch serves the filtered, sorted page. Unlike listing, bad
// filter input and out-of-range page parameters are rejected.
func (h *TransactionHandlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	params := r.URL.Query()

	page, limit, err := pageParams(params)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	criteria := criteriaFromQuery(params)
	if err := query.Validate(criteria); err != nil {
		errors.WriteError(w, h.logger, errors.Validation(err.Error()), requestID)
		return
	}

	result, err := h.service.Search(r.Context(), criteria, page, limit)
	if err != nil {
		errors.WriteErrorWith(w, h.logger,
			errors.StoreUnavailable(err, "Transaction data is unavailable"),
			requestID, models.EmptyPage(limit))
		return
	}

	writeJSON(w, searchResponse{Success: true, PageResult: result, Filters: criteria})
}

// HandleStatistics summarizes the subset matching the same filter
// parameters the search endpoint accepts.
func (h *TransactionHandlers) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	criteria := criteriaFromQuery(r.URL.Query())
	if err := query.Validate(criteria); err != nil {
		errors.WriteError(w, h.logger, errors.Validation(err.Error()), requestID)
		return
	}

	stats, err := h.service.GetStatistics(r.Context(), criteria)
	if err != nil {
		errors.WriteErrorWith(w, h.logger,
			errors.StoreUnavailable(err, "Transaction data is unavailable"),
			requestID, models.EmptyStatistics())
		return
	}

	errors.WriteSuccess(w, stats)
}

func (h *TransactionHandlers) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	opts, err := h.service.GetFilterOptions(r.Context())
	if err != nil {
		errors.WriteErrorWith(w, h.logger,
			errors.StoreUnavailable(err, "Transaction data is unavailable"),
			requestID, models.FilterOptions{})
		return
	}

	errors.WriteSuccess(w, opts)
}

func (h *TransactionHandlers) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("Invalid transaction ID"), requestID)
		return
	}

	tx, err := h.service.GetByID(r.Context(), id)
	if err == store.ErrNotFound {
		errors.WriteError(w, h.logger, errors.NotFound("Transaction not found"), requestID)
		return
	}
	if err != nil {
		errors.WriteError(w, h.logger,
			errors.StoreUnavailable(err, "Transaction data is unavailable"), requestID)
		return
	}

	errors.WriteSuccess(w, tx)
}

func (h *TransactionHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Count(r.Context())

	errors.WriteSuccess(w, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"dataLoaded": err == nil && count > 0,
		"dataCount":  count,
	})
}

// pageParams parses page and limit strictly: absent means default,
// present means it must be a valid in-range integer.
func pageParams(params url.Values) (page, limit int, err error) {
	page, limit = 1, 100

	if raw := params.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.Validation("page must be a number")
		}
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.Validation("limit must be a number")
		}
	}
	if err := query.ValidatePage(page, limit); err != nil {
		return 0, 0, errors.Validation(err.Error())
	}
	return page, limit, nil
}

// criteriaFromQuery reads the filter parameters. Multi-select fields
// accept repeated parameters; single-value fields take the first.
func criteriaFromQuery(params url.Values) query.Criteria {
	return query.Criteria{
		CustomerID:      params.Get("customerId"),
		CustomerName:    params.Get("customerName"),
		PhoneNumber:     params.Get("phoneNumber"),
		Gender:          params["gender"],
		AgeRange:        params.Get("ageRange"),
		CustomerRegion:  params["customerRegion"],
		ProductCategory: params["productCategory"],
		Tags:            params["tags"],
		OrderStatus:     params.Get("orderStatus"),
		StoreID:         params.Get("storeId"),
		Brand:           params.Get("brand"),
		PaymentMethod:   params["paymentMethod"],
		Date:            params.Get("date"),
		DateFrom:        params.Get("dateFrom"),
		DateTo:          params.Get("dateTo"),
		MinAmount:       params.Get("minAmount"),
		MaxAmount:       params.Get("maxAmount"),
		SortBy:          params.Get("sortBy"),
		SortOrder:       params.Get("sortOrder"),
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}
