package http

// AskRequest is the body of an assistant question.
type AskRequest struct {
	Query string `json:"query"`
}

// AskCreateAction answers a plain-language question about the data.
func AskCreateAction(ctx *Context) error {
	var req AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	q, err := parseQuery(ctx)
	if err != nil {
		return err
	}
	views, err := ctx.Service.Reader()
	if err != nil {
		return err
	}
	answer, err := ctx.Assistant.Ask(req.Query, views, q)
	if err != nil {
		return err
	}
	return ctx.JSON(answer)
}
