package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sushihentaime/lumina/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// public site
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug", app.showPostHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug/related", app.listRelatedPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/categories", app.listCategoriesHandler)
	router.HandlerFunc(http.MethodPost, "/v1/contact", app.rateLimit(app.submitContactHandler, "contact"))

	// admin console
	router.HandlerFunc(http.MethodPost, "/v1/admin/login", app.rateLimit(app.loginHandler, "login"))
	router.HandlerFunc(http.MethodPost, "/v1/admin/logout", app.requireAuthUser(app.logoutHandler))
	router.HandlerFunc(http.MethodPost, "/v1/admin/session/refresh", app.requireAuthUser(app.refreshSessionHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/session", app.requireAuthUser(app.showSessionHandler))

	router.HandlerFunc(http.MethodGet, "/v1/admin/posts", app.requirePermission(app.adminListPostsHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodPut, "/v1/admin/posts", app.requirePermission(app.savePostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodGet, "/v1/admin/posts/:id", app.requirePermission(app.adminShowPostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/posts/:id", app.requirePermission(app.deletePostHandler, userservice.PermissionWritePost))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.authenticate(router))))
}
