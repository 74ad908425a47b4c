package v1handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/kike-0203/watchy-solver-clean/pkg/serrors"
)

// fileField is the multipart form field carrying the uploaded image.
const fileField = "file"

// SolveImage accepts a multipart image upload, runs the solver pipeline and
// responds with the solution token and page count.
//
// POST /solve_image
func (h *Handler) SolveImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	file, _, err := r.FormFile(fileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, serrors.With(serrors.ErrBadRequest,
				"upload exceeds %d bytes", tooLarge.Limit))

			return
		}
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err,
			"missing multipart field %q", fileField))

		return
	}
	defer func() {
		_ = file.Close()
	}()

	image, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "could not read upload"))

		return
	}

	solution, err := h.deps.Solver.Solve(r.Context(), image)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, solution)
}
