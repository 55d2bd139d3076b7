// Package docs registers the OpenAPI document with swag so that
// echo-swagger can serve it under /swagger/.
package docs

import (
	"encoding/json"

	"dispatch/internal/generated/servers"

	"github.com/swaggo/swag"
)

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Dispatch",
	Description:      "Order to delivery partner assignment service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate(),
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func docTemplate() string {
	swagger, err := servers.GetSwagger()
	if err != nil {
		return "{}"
	}
	doc, err := json.Marshal(swagger)
	if err != nil {
		return "{}"
	}
	return string(doc)
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
