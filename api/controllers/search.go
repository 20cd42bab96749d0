package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/farmstand-backend/api/responses"
	"github.com/angelmondragon/farmstand-backend/api/validators"
	"github.com/angelmondragon/farmstand-backend/internal/search"
	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
)

type SearchService interface {
	Search(ctx context.Context, zip, query string) search.Result
}

// Search looks up products, pickup locations and farms around a zip code.
func Search(svc SearchService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "search service unavailable"))
			return
		}

		q, err := validators.ParseSearchQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.Search(r.Context(), q.Zip, q.Query))
	}
}
