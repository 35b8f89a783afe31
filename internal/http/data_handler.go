package http

import (
	"github.com/gofiber/fiber/v2"

	"searchlens/internal/config"
	"searchlens/internal/dataset"
)

// DatasetIndexAction returns the normalized records of one dataset with its
// source metadata.
func DatasetIndexAction(kind dataset.Kind) Action {
	return func(ctx *Context) error {
		q, err := parseQuery(ctx)
		if err != nil {
			return err
		}
		view, err := ctx.Service.Dataset(kind, q)
		if err != nil {
			return err
		}
		return ctx.JSON(view)
	}
}

// FilesResponse lists the CSV files of the data directory.
type FilesResponse struct {
	Directory string   `json:"directory"`
	Files     []string `json:"files"`
}

// FilesIndexAction lists the CSV files found in the data directory.
func FilesIndexAction(ctx *Context) error {
	if ctx.Config.DataSource != config.FileSource {
		return badRequest("file listing requires the file data source")
	}
	files, err := dataset.ListCSVFiles(ctx.Config.DataDirectory)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(FilesResponse{Directory: ctx.Config.DataDirectory, Files: files})
}
