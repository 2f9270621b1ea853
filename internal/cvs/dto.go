package cvs

type createResponse struct {
	ID  string `json:"id"`
	Ref string `json:"ref"`
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func toFieldErrors(err *InputError) []fieldErrorResponse {
	out := make([]fieldErrorResponse, 0, len(err.Validation.Errors))
	for _, fe := range err.Validation.Errors {
		out = append(out, fieldErrorResponse{Field: fe.Field, Message: fe.Message})
	}
	return out
}
