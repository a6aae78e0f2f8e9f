package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/osuwrapped/internal/adapters/imageproxy"
	"github.com/okian/osuwrapped/pkg/logger"
	"github.com/okian/osuwrapped/pkg/metrics"
)

const proxyCacheControl = "public, max-age=31536000"

// ProxyHandler relays allowlisted cover images so pages and exports load
// them from the service origin.
type ProxyHandler struct {
	images ImageFetcher
}

// NewProxyHandler creates a new proxy handler.
func NewProxyHandler(images ImageFetcher) *ProxyHandler {
	return &ProxyHandler{images: images}
}

// HandleProxyImage handles GET /api/proxy-image?url=.
func (h *ProxyHandler) HandleProxyImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("url")
	if raw == "" {
		metrics.RecordProxyRequest("rejected")
		writeMessage(w, http.StatusBadRequest, "URL required")
		return
	}
	if _, err := h.images.Parse(raw); err != nil {
		metrics.RecordProxyRequest("rejected")
		msg := "Invalid URL"
		if errors.Is(err, imageproxy.ErrNotAllowed) {
			msg = "Host not allowed"
		}
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	img, err := h.images.Fetch(ctx, raw)
	if err != nil {
		metrics.RecordProxyRequest("failed")
		logger.FromContext(ctx).Warn(ctx, "proxy fetch failed", logger.String("url", raw), logger.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch image")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", proxyCacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	n, err := w.Write(img.Data)
	metrics.RecordProxyRequest("ok")
	metrics.RecordProxyBytes(int64(n))
	if err != nil {
		logger.FromContext(ctx).Debug(ctx, "proxy write aborted", logger.Error(err))
	}
}
