package controllers

import (
	"net/http"

	"github.com/seojindev/idhub-backend/api/responses"
	"github.com/seojindev/idhub-backend/internal/users"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
	"github.com/seojindev/idhub-backend/pkg/logger"
)

// ManagerAccountReport serves the account population summary available to
// managers and admins.
func ManagerAccountReport(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.AccountReport(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
