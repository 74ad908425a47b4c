package v1handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kike-0203/watchy-solver-clean/pkg/metrics"
	"github.com/kike-0203/watchy-solver-clean/pkg/serrors"

	"github.com/gorilla/mux"
)

// pbmContentType is the MIME type of a served page.
const pbmContentType = "image/x-portable-bitmap"

// pageNotFoundMsg matches the wire message devices in the field already
// parse; do not translate it.
const pageNotFoundMsg = "No existe esa página"

// GetPage streams one rendered page of a solution.
//
// GET /pbm/{token}/{page}
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	token := vars["token"]

	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "page must be an integer"))

		return
	}

	data, err := h.deps.Store.Page(r.Context(), token, page)
	if err != nil {
		if errors.Is(err, serrors.ErrNotFound) {
			h.writeError(w, r, serrors.With(serrors.ErrNotFound, "%s", pageNotFoundMsg))

			return
		}
		h.writeError(w, r, err)

		return
	}

	metrics.PagesServed.Inc()
	w.Header().Set("Content-Type", pbmContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
