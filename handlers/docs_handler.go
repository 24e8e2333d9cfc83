package handlers

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed docs/openapi.json
var openAPIDoc []byte

const docURL = "/swagger/doc.json"

// ServeOpenAPI отдаёт описание API, которое читает Swagger UI.
func ServeOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(openAPIDoc)
}

func SwaggerUI() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL(docURL))
}
