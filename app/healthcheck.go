package main

import "net/http"

// healthCheckHandler reports the process and which drivers it was started
// with. It never calls the backend.
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	storage := app.config.BackendDriver
	if app.config.StorageDriver == "s3" {
		storage = "s3"
	}

	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.Environment,
			"version":     app.config.Version,
			"backend":     app.config.BackendDriver,
			"storage":     storage,
		},
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
