package handlers

import "net/http"

// Dependencies bundles everything the HTTP surface needs.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Uploader      VideoUploader
	Catalog       CatalogViews
	Videos        VideoFinder
	Admin         AdminConsole
	AuthLimiter   RateLimiter
	UploadLimiter RateLimiter
}

// RegisterRoutes wires every endpoint onto the mux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	authHandler := AuthHandler{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Limiter:  deps.AuthLimiter,
	}

	videoHandler := VideoHandler{
		Catalog:  deps.Catalog,
		Uploader: deps.Uploader,
		Videos:   deps.Videos,
		Admin:    deps.Admin,
		Sessions: deps.Sessions,
		Limiter:  deps.UploadLimiter,
	}

	adminHandler := AdminHandler{
		Console:  deps.Admin,
		Sessions: deps.Sessions,
	}

	mux.HandleFunc("/healthz", Health)

	mux.HandleFunc("/api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("/api/v1/auth/logout", authHandler.Logout)

	mux.HandleFunc("/api/v1/videos", videoHandler.Collection)
	mux.HandleFunc("/api/v1/videos/{videoID}", videoHandler.Resource)
	mux.HandleFunc("/api/v1/videos/{videoID}/related", videoHandler.Related)
	mux.HandleFunc("/api/v1/users/me/videos", videoHandler.Mine)

	mux.HandleFunc("/api/v1/admin/overview", adminHandler.Overview)
	mux.HandleFunc("/api/v1/admin/users/{userID}", adminHandler.DeleteUser)
	mux.HandleFunc("/api/v1/admin/videos/{videoID}", adminHandler.DeleteVideo)
}
