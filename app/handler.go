package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
	"github.com/sushihentaime/quillpost/internal/contentservice"
)

const (
	defaultPostsLimit = 10
	maxPostsLimit     = 100
)

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (app *application) createAccountHandler(w http.ResponseWriter, r *http.Request) {
	var input createAccountRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	session, err := app.authService.CreateAccount(r.Context(), input.Email, input.Password, input.Name)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrConflict):
			app.failedValidationErrorResponse(w, r, map[string]string{"email": "an account with this email address already exists"})
		default:
			app.errorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"session": session}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type createSessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var input createSessionRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	session, err := app.authService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthorized):
			app.invalidCredentialsErrorResponse(w, r)
		default:
			app.errorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"session": session}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) showCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{"user": app.getUserContext(r)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deleteSessionsHandler(w http.ResponseWriter, r *http.Request) {
	session := app.getSessionContext(r)

	err := app.authService.Logout(r.Context(), session.secret)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.cache.Delete(common.CacheKeySessionUser(session.secret))

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "logged out"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// listPostsHandler shows active posts unless status says otherwise; "all"
// drops the status filter.
func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	v := common.NewValidator()
	status := r.URL.Query().Get("status")
	if status == "" {
		status = contentservice.StatusActive
	}
	v.Check(common.PermittedValue(status, contentservice.StatusActive, contentservice.StatusInactive, "all"), "status", "must be active, inactive or all")
	if limit != nil {
		v.Check(*limit > 0 && *limit <= maxPostsLimit, "limit", fmt.Sprintf("must be between 1 and %d", maxPostsLimit))
	}
	if offset != nil {
		v.Check(*offset >= 0, "offset", "must not be negative")
	}
	if !v.Valid() {
		app.failedValidationErrorResponse(w, r, v.Errors)
		return
	}

	var queries []backend.Query
	if status != "all" {
		queries = append(queries, backend.Equal("status", status))
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		queries = append(queries, backend.Equal("userId", userID))
	}

	if limit == nil {
		l := defaultPostsLimit
		limit = &l
	}
	queries = append(queries, backend.OrderDesc("$createdAt"), backend.Limit(*limit))
	if offset != nil {
		queries = append(queries, backend.Offset(*offset))
	}

	posts, err := app.contentService.GetPosts(r.Context(), queries...)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"total": posts.Total, "posts": posts.Documents}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) showPostHandler(w http.ResponseWriter, r *http.Request) {
	post, err := app.contentService.GetPost(r.Context(), app.readStringParam(r, "slug"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// createPostHandler publishes a post. The slug is derived from the title
// when the form leaves it empty.
func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	form, err := app.parsePostForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	defer form.Close()

	slug := form.Slug
	if slug == "" {
		slug = form.Title
	}

	post, err := app.contentService.Publish(r.Context(), contentservice.PublishRequest{
		Title:   form.Title,
		Slug:    contentservice.SlugTransform(slug),
		Content: form.Content,
		Status:  form.Status,
		UserID:  app.getUserContext(r).ID,
		Image:   form.Image,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/v1/posts/"+post.Slug)

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": post}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	form, err := app.parsePostForm(w, r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	defer form.Close()

	post, err := app.contentService.Revise(r.Context(), app.readStringParam(r, "slug"), contentservice.ReviseRequest{
		Title:   form.Title,
		Content: form.Content,
		Status:  form.Status,
		UserID:  app.getUserContext(r).ID,
		Image:   form.Image,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	err := app.contentService.Retract(r.Context(), app.readStringParam(r, "slug"), app.getUserContext(r).ID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) previewFileHandler(w http.ResponseWriter, r *http.Request) {
	url, err := app.contentService.FilePreview(app.readStringParam(r, "id"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}
