package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	importPath = "/api/v1/edd-import"
	jobsPrefix = "/api/v1/edd-import/jobs/"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterImportRoutes 注册导入与任务查询路由
func (r *Router) RegisterImportRoutes(h *ImportHandler) {
	r.Handle(importPath, func(w http.ResponseWriter, req *http.Request) {
		setCORS(w)
		switch req.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		case http.MethodPost:
			h.Import(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// jobs/{job_id} and jobs/{job_id}/reviews.xlsx
	r.Handle(jobsPrefix, func(w http.ResponseWriter, req *http.Request) {
		setCORS(w)
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, jobsPrefix)
		id, tail, _ := strings.Cut(rest, "/")
		switch {
		case id == "":
			w.WriteHeader(http.StatusNotFound)
		case tail == "":
			h.GetJob(w, req, id)
		case tail == "reviews.xlsx":
			h.ReviewsWorkbook(w, req, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}
