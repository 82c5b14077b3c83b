package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"printboard/config"
	"printboard/logger"
	"printboard/web/controller"
)

func InitRouter(controller *controller.Controller, logger *logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(logger.LogRequest)

	router.HandleFunc("/info/{id}.json", controller.Info).Methods(http.MethodGet)

	videorouter := router.PathPrefix("/video").Subrouter()
	videorouter.HandleFunc("/{id}.m3u8", controller.VideoPlaylist).Methods(http.MethodGet)
	videorouter.HandleFunc("/{file}.ts", controller.VideoSegment).Methods(http.MethodGet)
	videorouter.HandleFunc("/{id}.html", controller.VideoPage).Methods(http.MethodGet)

	modelrouter := router.PathPrefix("/model").Subrouter()
	modelrouter.HandleFunc("/{id}.html", controller.ModelPage).Methods(http.MethodGet)
	modelrouter.HandleFunc("/{id}.{ext:gcode|json|obj}", controller.ModelFile).Methods(http.MethodGet)

	apirouter := router.PathPrefix("/api").Subrouter()
	apirouter.HandleFunc("/board", controller.BoardState).Methods(http.MethodGet)
	apirouter.HandleFunc("/overlay", controller.OpenOverlay).Methods(http.MethodPost)
	apirouter.HandleFunc("/overlay", controller.CloseOverlay).Methods(http.MethodDelete)
	apirouter.HandleFunc("/status", controller.AppStatus).Methods(http.MethodGet)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	}).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(config.GetConfig().StaticFolder)))

	return router
}
