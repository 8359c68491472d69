package web

import (
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	"erp-sales/internal/app"
)

// requestSchemas names the request bodies published under /api/schema/{name}.
var requestSchemas = map[string]any{
	"quote":       app.CreateQuoteRequest{},
	"order":       app.CreateOrderRequest{},
	"invoice":     app.CreateInvoiceRequest{},
	"credit-note": app.CreateCreditNoteRequest{},
	"payment":     app.RecordPaymentRequest{},
	"totals":      app.ComputeTotalsRequest{},
	"status":      app.SetStatusRequest{},
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// requestSchema reflects the JSON schema of one request type. Decimals are
// published as numeric strings, which is how they are accepted.
func requestSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == decimalType {
				return &jsonschema.Schema{
					Type:    "string",
					Pattern: `^-?[0-9]+(\.[0-9]+)?$`,
				}
			}
			return nil
		},
	}
	return reflector.Reflect(v)
}

// apiSchema handles GET /api/schema/{name}.
func (h *Handler) apiSchema(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "name"))
	v, ok := requestSchemas[name]
	if !ok {
		names := make([]string, 0, len(requestSchemas))
		for n := range requestSchemas {
			names = append(names, n)
		}
		sort.Strings(names)
		writeError(w, r, "unknown schema "+name+"; known: "+strings.Join(names, ", "), "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, requestSchema(v))
}
