package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"feedback-portal/pkg/utils"
)

const maxBodyBytes = 1 << 20

// ValidateBody decodes the JSON body into T, applies its validate tags and
// stores *T in the request context. Handlers read it with utils.GetBody[T].
func ValidateBody[T any]() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := new(T)

			decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err := decoder.Decode(body); err != nil {
				message := "Request body must be valid JSON"
				if errors.Is(err, io.EOF) {
					message = "Request body is required"
				}
				utils.ResponseValidation(w, []utils.FieldError{{Field: "body", Message: message}})
				return
			}

			if errs := utils.ValidateStruct(body); len(errs) > 0 {
				utils.ResponseValidation(w, errs)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.SetBody(r.Context(), body)))
		})
	}
}
