package httpadapter

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
	"ragbench/internal/observability/metrics"
)

type Router struct {
	service string

	ingest  ports.DocumentIngestor
	query   ports.QueryService
	admin   ports.IndexAdmin
	records ports.RecordStore
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	service string,
	ingest ports.DocumentIngestor,
	query ports.QueryService,
	admin ports.IndexAdmin,
	records ports.RecordStore,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		service: service,
		ingest:  ingest,
		query:   query,
		admin:   admin,
		records: records,
		metrics: serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/status", rt.status)
	mux.HandleFunc("/v1/rag/query", rt.ragQuery)
	mux.HandleFunc("/v1/rag/compare", rt.ragCompare)
	mux.HandleFunc("/v1/strategies", rt.strategies)
	mux.HandleFunc("/v1/index/clear", rt.clearIndex)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(recoverMiddleware(accessLogMiddleware(handler)))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"strategies": domain.Strategies(),
	})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocuments(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	const maxUploadMemory = 32 << 20
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	records := make([]*domain.DocumentRecord, 0, len(headers))
	for _, header := range headers {
		rec, err := rt.uploadOne(r, header)
		if err != nil {
			writeError(w, err)
			return
		}
		records = append(records, rec)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"documents": records})
}

func (rt *Router) uploadOne(r *http.Request, header *multipart.FileHeader) (*domain.DocumentRecord, error) {
	file, err := header.Open()
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmptyInput, "open upload", err)
	}
	defer file.Close()

	return rt.ingest.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	records, err := rt.records.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.DocumentRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": records,
		"total":     len(records),
	})
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	rec, err := rt.records.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := rt.records.StatusCounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	total := 0
	byStatus := make(map[string]int, len(counts))
	for status, count := range counts {
		total += count
		byStatus[string(status)] = count
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":  overallState(counts, total),
		"counts": byStatus,
		"total":  total,
	})
}

func overallState(counts map[domain.RecordStatus]int, total int) string {
	switch {
	case total == 0:
		return "idle"
	case counts[domain.StatusProcessing] > 0 || counts[domain.StatusUploaded] > 0:
		return "processing"
	case counts[domain.StatusFailed] > 0:
		return "failed"
	default:
		return "completed"
	}
}

type queryRequest struct {
	Query    string              `json:"query"`
	Strategy string              `json:"strategy"`
	Params   domain.SearchParams `json:"params"`
}

func (rt *Router) ragQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Strategy == "" {
		req.Strategy = string(domain.StrategySimple)
	}

	result, err := rt.query.Query(r.Context(), req.Query, req.Strategy, req.Params)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordStrategyFailure(rt.service, req.Strategy)
		}
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordStrategyAnswer(rt.service, string(result.Strategy), len(result.Sources), result.ProcessingTime)
	}
	writeJSON(w, http.StatusOK, toResultPayload(result))
}

type compareRequest struct {
	Query      string              `json:"query"`
	Strategies []string            `json:"strategies"`
	Params     domain.SearchParams `json:"params"`
}

func (rt *Router) ragCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	outcomes, err := rt.query.Compare(r.Context(), req.Query, req.Strategies, req.Params)
	if err != nil {
		writeError(w, err)
		return
	}

	failed := 0
	results := make(map[string]any, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Failed() {
			failed++
			results[string(outcome.Strategy)] = map[string]string{"error": outcome.Err.Error()}
			if rt.metrics != nil {
				rt.metrics.RecordStrategyFailure(rt.service, string(outcome.Strategy))
			}
			continue
		}
		results[string(outcome.Strategy)] = toResultPayload(outcome.Result)
		if rt.metrics != nil {
			rt.metrics.RecordStrategyAnswer(rt.service, string(outcome.Strategy), len(outcome.Result.Sources), outcome.Result.ProcessingTime)
		}
	}
	if rt.metrics != nil {
		rt.metrics.RecordCompareRun(rt.service, failed)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": results,
	})
}

var strategyDescriptions = map[domain.Strategy]string{
	domain.StrategySimple:    "Retrieve the nearest chunks for the raw query and answer from them.",
	domain.StrategyReranking: "Retrieve a wide candidate set, rescore it by blending retrieval and semantic similarity, then answer from the top slice.",
	domain.StrategyHyDE:      "Generate a hypothetical answer document, retrieve with its embedding, then answer from the results.",
}

func (rt *Router) strategies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	type strategyInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	infos := make([]strategyInfo, 0, len(domain.Strategies()))
	for _, strategy := range domain.Strategies() {
		infos = append(infos, strategyInfo{
			Name:        string(strategy),
			Description: strategyDescriptions[strategy],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"strategies": infos})
}

func (rt *Router) clearIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := rt.admin.ClearIndex(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type resultPayload struct {
	Query            string                      `json:"query"`
	Strategy         string                      `json:"strategy"`
	Answer           string                      `json:"answer"`
	Context          []domain.RetrievedCandidate `json:"context"`
	Sources          []domain.Source             `json:"sources"`
	ProcessingTimeMS float64                     `json:"processing_time_ms"`
}

func toResultPayload(result *domain.QueryResult) resultPayload {
	candidates := result.Context
	if candidates == nil {
		candidates = []domain.RetrievedCandidate{}
	}
	sources := result.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return resultPayload{
		Query:            result.Query,
		Strategy:         string(result.Strategy),
		Answer:           result.Answer,
		Context:          candidates,
		Sources:          sources,
		ProcessingTimeMS: float64(result.ProcessingTime.Microseconds()) / 1000.0,
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
