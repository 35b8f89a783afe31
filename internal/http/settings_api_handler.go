package http

import (
	"log/slog"

	"searchlens/internal/settings"
)

// BrandKeywordsResponse is the body of the brand keywords endpoints.
type BrandKeywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// BrandKeywordsShowAction returns the keywords the brand insight uses.
func BrandKeywordsShowAction(ctx *Context) error {
	return ctx.JSON(BrandKeywordsResponse{Keywords: ctx.Service.BrandKeywords()})
}

// BrandKeywordsUpdateAction replaces the brand keywords and drops cached
// insights.
func BrandKeywordsUpdateAction(ctx *Context) error {
	var req BrandKeywordsResponse
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.Keywords == nil {
		return badRequest("keywords is required")
	}

	saved, err := settings.SaveBrandKeywords(ctx.DB(), req.Keywords)
	if err != nil {
		ctx.Logger.Error("failed to save brand keywords", slog.Any("error", err))
		return err
	}
	ctx.Service.SetBrandKeywords(saved)

	return ctx.JSON(BrandKeywordsResponse{Keywords: saved})
}
