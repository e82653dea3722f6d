package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/lumina/internal/common"
	"github.com/sushihentaime/lumina/internal/mailservice"
	"github.com/sushihentaime/lumina/internal/postservice"
	"github.com/sushihentaime/lumina/internal/userservice"
)

func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	status := postservice.StatusPublished

	posts, err := app.postService.ListPosts(r.Context(), &status)
	if err != nil {
		app.unavailableResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showPostHandler(w http.ResponseWriter, r *http.Request) {
	slug := app.readStringParam(r, "slug")

	post, err := app.postService.GetPostBySlug(r.Context(), slug)
	if err != nil {
		app.unavailableResponse(w, r, err)
		return
	}
	if post == nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listRelatedPostsHandler(w http.ResponseWriter, r *http.Request) {
	slug := app.readStringParam(r, "slug")

	post, err := app.postService.GetPostBySlug(r.Context(), slug)
	if err != nil {
		app.unavailableResponse(w, r, err)
		return
	}
	if post == nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	related := app.postService.GetRelatedPosts(r.Context(), post.ID, post.Category)

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": related}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{"categories": app.postService.ListCategories()}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

func (app *application) submitContactHandler(w http.ResponseWriter, r *http.Request) {
	var input contactRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.contactService.Submit(r.Context(), mailservice.ContactMessage{
		Name:    input.Name,
		Email:   input.Email,
		Company: input.Company,
		Message: input.Message,
	})
	if err != nil {
		if !app.validationErrorResponse(w, r, err) {
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusAccepted, envelope{"message": "your message has been received"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input loginRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	session, err := app.userService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			app.validationErrorResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"session": session}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	session := app.contextGetSession(r)

	err := app.userService.Logout(r.Context(), session.Token)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "logged out"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) refreshSessionHandler(w http.ResponseWriter, r *http.Request) {
	session := app.contextGetSession(r)

	refreshed, err := app.userService.Refresh(r.Context(), session.Token)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.invalidAuthenticationTokenResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"session": refreshed}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showSessionHandler(w http.ResponseWriter, r *http.Request) {
	session := app.contextGetSession(r)

	err := app.writeJSON(w, http.StatusOK, envelope{"user": session.User, "expiry": session.Expiry}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) adminListPostsHandler(w http.ResponseWriter, r *http.Request) {
	status, err := app.readStatusParam(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	posts, err := app.postService.ListPosts(r.Context(), status)
	if err != nil {
		if !app.validationErrorResponse(w, r, err) {
			app.storeErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) adminShowPostHandler(w http.ResponseWriter, r *http.Request) {
	id := app.readStringParam(r, "id")

	post, err := app.postService.GetPostByID(r.Context(), id)
	if err != nil {
		if !app.validationErrorResponse(w, r, err) {
			app.storeErrorResponse(w, r, err)
		}
		return
	}
	if post == nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) savePostHandler(w http.ResponseWriter, r *http.Request) {
	var input postservice.Post

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	// posts written without an author are attributed to the editor saving them
	session := app.contextGetSession(r)
	if input.AuthorID == "" {
		input.AuthorID = session.User.ID
		if input.AuthorName == "" {
			input.AuthorName = session.User.Name
		}
	}

	post, err := app.postService.SavePost(r.Context(), &input)
	if err != nil {
		if !app.validationErrorResponse(w, r, err) {
			app.storeErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id := app.readStringParam(r, "id")

	err := app.postService.DeletePost(r.Context(), id)
	if err != nil {
		if !app.validationErrorResponse(w, r, err) {
			app.storeErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
