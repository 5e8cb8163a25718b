// Package api provides the delivery console REST API.
//
//	@title						Delivery Console API
//	@version					1.0
//	@description				Deployment lifecycle and licensing API
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package api
