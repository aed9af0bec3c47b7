package httphandler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/xeipuuv/gojsonschema"
)

const maxBodyBytes = 1 << 20

const registerSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["username", "email", "password"],
  "properties": {
    "username": { "type": "string", "minLength": 3, "maxLength": 30 },
    "email": { "type": "string", "minLength": 3 },
    "password": { "type": "string", "minLength": 6 },
    "referralCode": { "type": "string" }
  }
}`

const createOrderSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["items", "customer", "storeId", "paymentMethod"],
  "properties": {
    "storeId": { "type": "string", "minLength": 1 },
    "paymentMethod": { "enum": ["payfast", "stripe", "manual"] },
    "referralCode": { "type": "string" },
    "customer": {
      "type": "object",
      "required": ["email"],
      "properties": {
        "email": { "type": "string", "minLength": 3 },
        "firstName": { "type": "string" },
        "lastName": { "type": "string" },
        "phone": { "type": "string" }
      }
    },
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["productId", "quantity"],
        "properties": {
          "productId": { "type": "string", "minLength": 1 },
          "quantity": { "type": "integer", "minimum": 1 },
          "variant": { "type": "object" }
        }
      }
    }
  }
}`

var (
	registerSchemaLoader    = gojsonschema.NewStringLoader(registerSchema)
	createOrderSchemaLoader = gojsonschema.NewStringLoader(createOrderSchema)
)

// decodeValidJSON validates the body against the schema before decoding it
// into v.
func decodeValidJSON(
	r *http.Request, schema gojsonschema.JSONLoader, v any,
) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return domain.Invalid("failed to read body")
	}

	res, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return domain.Invalid("invalid JSON data")
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Invalid("%s", strings.Join(msgs, "; "))
	}

	if err := json.NewDecoder(bytes.NewReader(body)).Decode(v); err != nil {
		return domain.Invalid("invalid JSON data")
	}
	return nil
}
